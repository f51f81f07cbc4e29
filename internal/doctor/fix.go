package doctor

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/cback/internal/paths"
	"github.com/thoreinstein/cback/pkg/fileutil"
)

// Fixer is implemented by checks that can repair what their last Run found.
type Fixer interface {
	CanFix() bool
	Fix() []FixResult
}

// FixResult reports one attempted repair.
type FixResult struct {
	Path        string
	Fixed       bool
	Description string
	Error       error
}

// CanFix reports whether the last Run found a permission problem that
// chmod can repair.
func (c *PathPermissionCheck) CanFix() bool {
	return c.fixable() > 0
}

// Fix tightens every fixable path to the modes cback itself writes: 0600
// for the config file and 0700 for directories.
func (c *PathPermissionCheck) Fix() []FixResult {
	results := make([]FixResult, 0, c.fixable())
	for _, issue := range c.issues {
		if issue.Fixable {
			results = append(results, repairPermissions(issue))
		}
	}
	return results
}

func (c *PathPermissionCheck) fixable() int {
	n := 0
	for _, issue := range c.issues {
		if issue.Fixable {
			n++
		}
	}
	return n
}

func repairPermissions(issue pathIssue) FixResult {
	res := FixResult{Path: issue.Path}

	var perm os.FileMode
	switch issue.Type {
	case "file":
		perm = fileutil.DefaultFilePerm
	case "directory":
		perm = paths.DefaultDirPerm
	default:
		res.Error = errors.Newf("cannot repair %s: unknown path type %q", issue.Path, issue.Type)
		res.Description = res.Error.Error()
		return res
	}

	if err := os.Chmod(issue.Path, perm); err != nil {
		res.Error = errors.Wrapf(err, "chmod %04o %s", perm, issue.Path)
		res.Description = fmt.Sprintf("chmod %04o failed: %v", perm, err)
		return res
	}
	res.Fixed = true
	res.Description = fmt.Sprintf("chmod %04o", perm)
	return res
}
