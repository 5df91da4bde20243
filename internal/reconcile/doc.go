// Package reconcile keeps the two on-disk forms of an interface in step.
//
// The folder form lives under {base}/{iface}/: an interface fragment named
// {iface}.conf holding only [Interface], plus one {peer}.conf per peer
// holding a single [Peer] block optionally preceded by a "# {peer}"
// comment. The canonical form is the flat {base}/{iface}.conf read by wg
// and wg-quick.
//
// Sync builds the canonical file from the folder. Reset rebuilds the folder
// from the canonical file, recovering peer names by identity correlation
// so that a Sync/Reset round trip keeps file names stable. Diff compares
// the two forms without writing anything, and Apply pushes the canonical
// file to the running interface.
//
// Every exported operation takes the lock manager and the layout
// explicitly and serializes on the canonical path of the interface:
// Sync and Reset exclusively, Diff and Apply shared. The *Locked variants
// assume the caller already holds the exclusive lock; they let peer and
// interface mutations re-sync inside their own critical section.
package reconcile
