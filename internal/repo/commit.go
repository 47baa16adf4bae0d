package repo

import (
	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/objcodec"
	"github.com/javanhut/mog/internal/objstore"
)

// Commit writes the currently-staged tree as a new commit object (spec
// §4.9), parented on HEAD's current commit if one exists, and advances
// whatever HEAD points at: the branch ref if HEAD is symbolic, or HEAD
// itself if detached. Returns the new commit's hash.
func (r *Repository) Commit(author, message string, timestamp int64) (hash.Hash, error) {
	treeHash, err := r.Index.WriteTree(r.DB)
	if err != nil {
		return hash.Hash{}, err
	}

	var parents []hash.Hash
	if parent, err := r.headCommit(); err == nil {
		parents = []hash.Hash{parent}
	} else if !isNotFound(err) {
		return hash.Hash{}, err
	}

	record := objcodec.EncodeCommit(objstore.Commit{
		Tree:      treeHash,
		Parents:   parents,
		Timestamp: timestamp,
		Author:    author,
		Message:   message,
	})
	h := objcodec.HashOf(record)
	if err := r.DB.StageWrite(h, record); err != nil {
		return hash.Hash{}, err
	}
	if err := r.DB.Flush(); err != nil {
		return hash.Hash{}, err
	}

	head, err := r.Refs.ReadHEAD()
	if err != nil {
		return hash.Hash{}, err
	}
	if head.Symbolic {
		if err := r.Refs.SetBranch(head.Branch, h); err != nil {
			return hash.Hash{}, err
		}
	} else {
		if err := r.Refs.SetHEADDetached(h); err != nil {
			return hash.Hash{}, err
		}
	}

	return h, nil
}
