/*
Package branchedlist reconciles ordered, keyed sequences that share a common trunk
but diverge into branches.

A route with several service variants is described by one stop sequence per
variant. Each sequence is wrapped in a List tagged with its own branch id, and
the lists are merged pairwise into one canonical sequence. Stops shared by
several variants collapse into a single Entry whose branch-id set is the union
of every variant passing through it; stops private to one variant are inserted
where that variant rejoins the trunk.

# Basic Usage

	main := branchedlist.New[string, string, int](1)
	main.Add("A", "a")
	main.Add("B", "b")
	main.Add("C", "c")

	alt := branchedlist.New[string, string, int](2)
	alt.Add("X", "x")
	alt.Add("B", "b2")

	main.Merge(alt, false)
	// A, X, B{1,2}, C

# Alignment

Alignment is greedy: the first entry of the other list (in its own order) that
matches anything in the receiver at or after the search cursor becomes the
anchor. It is not a longest-common-subsequence alignment. Keys are compared with
== unless an equality function is supplied through Options.

# Search cursor

After an anchor is merged the search cursor advances according to the list's
OffsetStrategy. OffsetMatchIndex restarts the search one past the anchor's
index before the other list's prefix was inserted; OffsetAfterMatch restarts
immediately after the anchor's final position.

# Thread Safety

A List is not synchronized. Merging only reads the other list.
*/
package branchedlist
