package manifest

import "sort"

// ChangeSet partitions the workspace against the manifest: files to index,
// files to re-index, files whose chunks must be removed, and files already
// up to date. Each list is sorted for deterministic processing.
type ChangeSet struct {
	Added     []string
	Modified  []string
	Removed   []string
	Unchanged []string
}

// Total returns how many files need work (added + modified + removed).
func (c ChangeSet) Total() int {
	return len(c.Added) + len(c.Modified) + len(c.Removed)
}

// Diff compares current file hashes (path → content hash) against the
// manifest. It is a pure function of its inputs: hash equality is the only
// signal, so touched-but-identical files land in Unchanged.
func Diff(current map[string]string, m *Manifest) ChangeSet {
	var cs ChangeSet

	for path, hash := range current {
		rec, ok := m.Files[path]
		switch {
		case !ok:
			cs.Added = append(cs.Added, path)
		case rec.Hash != hash:
			cs.Modified = append(cs.Modified, path)
		default:
			cs.Unchanged = append(cs.Unchanged, path)
		}
	}

	for path := range m.Files {
		if _, ok := current[path]; !ok {
			cs.Removed = append(cs.Removed, path)
		}
	}

	sort.Strings(cs.Added)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Removed)
	sort.Strings(cs.Unchanged)
	return cs
}
