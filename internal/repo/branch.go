package repo

import (
	"fmt"

	"github.com/javanhut/mog/internal/mogerr"
	"github.com/javanhut/mog/internal/refs"
)

// BranchInfo is one entry of ListBranches' result.
type BranchInfo struct {
	Name    string
	Current bool
}

// ListBranches returns every local branch, sorted, with Current marking the
// one HEAD points to (if any).
func (r *Repository) ListBranches() ([]BranchInfo, error) {
	names, err := r.Refs.ListBranches()
	if err != nil {
		return nil, err
	}
	current, err := r.CurrentBranch()
	if err != nil {
		return nil, err
	}
	out := make([]BranchInfo, len(names))
	for i, n := range names {
		out[i] = BranchInfo{Name: n, Current: n == current}
	}
	return out, nil
}

// CreateBranch creates a new branch named name pointing at target (a branch
// name, hex hash, or "" meaning HEAD's current commit).
func (r *Repository) CreateBranch(name, target string) error {
	if r.Refs.BranchExists(name) {
		return mogerr.New(mogerr.KindInvalidInput, "repo.CreateBranch", fmt.Errorf("branch %q already exists", name))
	}
	if err := refs.ValidateBranchName(name); err != nil {
		return err
	}

	if target == "" {
		headHash, err := r.headCommit()
		if err != nil {
			return err
		}
		return r.Refs.SetBranch(name, headHash)
	}
	commitHash, err := r.ResolveCommit(target)
	if err != nil {
		return err
	}
	return r.Refs.SetBranch(name, commitHash)
}

// DeleteBranch removes name, refusing (unless force) if its tip commit is
// not reachable from any other branch (spec's safe-delete check).
func (r *Repository) DeleteBranch(name string, force bool) error {
	if !r.Refs.BranchExists(name) {
		return mogerr.New(mogerr.KindNotFound, "repo.DeleteBranch", fmt.Errorf("branch %q not found", name))
	}
	current, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	if current == name {
		return mogerr.New(mogerr.KindInvalidInput, "repo.DeleteBranch", fmt.Errorf("cannot delete branch %q: it is currently checked out", name))
	}

	if !force {
		branchHash, err := r.Refs.ResolveBranch(name)
		if err != nil {
			return err
		}
		others, err := r.Refs.ListBranches()
		if err != nil {
			return err
		}
		reachable := false
		for _, b := range others {
			if b == name {
				continue
			}
			tip, err := r.Refs.ResolveBranch(b)
			if err != nil {
				continue
			}
			set, err := r.ReachableCommits(tip)
			if err != nil {
				return err
			}
			if _, ok := set[branchHash]; ok {
				reachable = true
				break
			}
		}
		if !reachable {
			return mogerr.New(mogerr.KindConflict, "repo.DeleteBranch", fmt.Errorf(
				"branch %q has commits not merged into any other branch; use force delete to override", name))
		}
	}

	return r.Refs.DeleteBranch(name)
}

// RenameBranch renames old to new, updating HEAD if old was checked out.
func (r *Repository) RenameBranch(old, new string) error {
	if !r.Refs.BranchExists(old) {
		return mogerr.New(mogerr.KindNotFound, "repo.RenameBranch", fmt.Errorf("branch %q not found", old))
	}
	if r.Refs.BranchExists(new) {
		return mogerr.New(mogerr.KindInvalidInput, "repo.RenameBranch", fmt.Errorf("branch %q already exists", new))
	}
	if err := refs.ValidateBranchName(new); err != nil {
		return err
	}
	if err := r.Refs.RenameBranch(old, new); err != nil {
		return err
	}
	current, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	if current == old {
		return r.Refs.SetHEADSymbolic(new)
	}
	return nil
}
