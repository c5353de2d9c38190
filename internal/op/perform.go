package op

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/charlievieth/fastwalk"
	"github.com/dustin/go-humanize"

	"lumen/internal/debug"
	"lumen/internal/trash"
)

// Standard permission for directories the engine creates itself.
const dirPermission = 0o755

// pathExists checks if a path exists on the filesystem.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// deleteItem removes a file or directory (recursively for directories).
func deleteItem(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

// perform executes the operation: Preparing (enumeration, no mutation) then
// Executing, one filesystem action at a time. It is the only place in the
// repository that mutates the filesystem. On failure the returned Selection
// still reports the work completed before the error; nothing is rolled back.
func (o Operation) perform(ctx context.Context, ctl *Controller, res *resolver) (Selection, error) {
	debug.Log(debug.OP, "perform: %s", o.Describe())

	switch o.Kind {
	case Copy:
		return o.transfer(ctx, ctl, res, false)
	case Move:
		return o.transfer(ctx, ctl, res, true)
	case Delete:
		return o.trashPaths(ctx, ctl)
	case Restore:
		return o.restoreItems(ctx, ctl)
	case Rename:
		return o.rename(ctx, ctl)
	case NewFolder:
		return o.newFolder(ctx, ctl)
	case EmptyTrash:
		return o.emptyTrash(ctx, ctl)
	default:
		return Selection{}, fmt.Errorf("unknown operation kind %d", o.Kind)
	}
}

// ============================================================================
// Copy / Move
// ============================================================================

// xferItem is one enumerated entry below a transfer root. rel is the path
// relative to the root so KeepBoth can re-root the whole subtree.
type xferItem struct {
	src   string
	rel   string
	isDir bool
	mode  iofs.FileMode
	size  int64
}

// xferRoot is one top-level source path with its enumerated contents.
type xferRoot struct {
	src   string
	dst   string
	isDir bool
	mode  iofs.FileMode
	items []xferItem
	bytes int64
	files int
}

// enumerateRoot walks one top-level source path and builds its flat transfer
// plan with total byte count for progress weighting. A stat failure on the
// root itself aborts the operation before any mutation; unreadable entries
// below it are skipped, matching directory-listing behavior elsewhere. The
// walk observes the Controller per entry so cancel and pause take effect
// during enumeration of large trees, not only after it.
func enumerateRoot(ctx context.Context, ctl *Controller, src, dst string) (xferRoot, error) {
	info, err := os.Stat(src)
	if err != nil {
		return xferRoot{}, err
	}

	root := xferRoot{src: src, dst: dst, isDir: info.IsDir(), mode: info.Mode()}
	if !root.isDir {
		root.bytes = info.Size()
		root.files = 1
		root.items = []xferItem{{src: src, rel: "", mode: info.Mode(), size: info.Size()}}
		return root, nil
	}

	conf := &fastwalk.Config{Follow: true}
	srcLen := len(src)

	err = fastwalk.Walk(conf, src, func(fullPath string, d iofs.DirEntry, walkErr error) error {
		if err := ctl.Check(ctx); err != nil {
			return err // aborts the walk
		}
		if walkErr != nil {
			return nil // skip unreadable entries, continue walking
		}
		rel := fullPath[srcLen:]
		if len(rel) > 0 && (rel[0] == '/' || rel[0] == '\\') {
			rel = rel[1:]
		}
		if rel == "" {
			return nil // the root itself
		}
		entryInfo, statErr := fastwalk.StatDirEntry(fullPath, d)
		if statErr != nil {
			return nil
		}
		item := xferItem{src: fullPath, rel: rel, isDir: entryInfo.IsDir(), mode: entryInfo.Mode()}
		if !item.isDir {
			item.size = entryInfo.Size()
			root.bytes += item.size
			root.files++
		}
		root.items = append(root.items, item)
		return nil
	})
	if err != nil {
		return xferRoot{}, err
	}

	// Directories before files, parents before children.
	sort.Slice(root.items, func(i, j int) bool {
		if root.items[i].isDir != root.items[j].isDir {
			return root.items[i].isDir
		}
		return len(root.items[i].rel) < len(root.items[j].rel)
	})
	return root, nil
}

// transferState carries the mutable execution state of one Copy/Move, scoped
// to a single perform invocation.
type transferState struct {
	ctx        context.Context
	ctl        *Controller
	res        *resolver
	move       bool
	totalBytes int64
	bytesDone  int64
	leavesLeft int
	taken      map[string]bool
	sel        Selection
}

func (t *transferState) progress() {
	if t.totalBytes > 0 {
		t.ctl.SetProgress(float64(t.bytesDone) / float64(t.totalBytes))
	}
}

func (o Operation) transfer(ctx context.Context, ctl *Controller, res *resolver, move bool) (Selection, error) {
	ctl.SetState("Preparing " + o.Describe())

	var roots []xferRoot
	var totalBytes int64
	var totalFiles int
	for _, src := range o.Paths {
		root, err := enumerateRoot(ctx, ctl, src, filepath.Join(o.To, filepath.Base(src)))
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				ctl.SetState("Cancelled")
				return Selection{}, ErrCancelled
			}
			return Selection{}, fmt.Errorf("%s: %w", src, err)
		}
		roots = append(roots, root)
		totalBytes += root.bytes
		totalFiles += root.files
	}
	debug.Log(debug.OP, "transfer: %d roots, %d files, %s", len(roots), totalFiles, humanize.Bytes(uint64(totalBytes)))

	t := &transferState{
		ctx:        ctx,
		ctl:        ctl,
		res:        res,
		move:       move,
		totalBytes: totalBytes,
		leavesLeft: totalFiles,
		taken:      make(map[string]bool),
	}

	for _, root := range roots {
		if err := ctl.Check(ctx); err != nil {
			ctl.SetState("Cancelled")
			return t.sel, err
		}
		if err := t.doRoot(root); err != nil {
			if errors.Is(err, ErrCancelled) {
				ctl.SetState("Cancelled")
			}
			return t.sel, err
		}
	}

	ctl.SetProgress(1)
	ctl.SetState("Complete")
	return t.sel, nil
}

func (t *transferState) doRoot(root xferRoot) error {
	// Same-filesystem fast path for Move: a single atomic rename covers the
	// whole subtree. Any failure (cross-device, permissions) falls back to
	// copy+delete below.
	if t.move && !pathExists(root.dst) {
		if err := os.Rename(root.src, root.dst); err == nil {
			t.bytesDone += root.bytes
			t.leavesLeft -= root.files
			t.progress()
			t.sel.Selected = append(t.sel.Selected, root.dst)
			return nil
		}
	}

	if !root.isDir {
		item := root.items[0]
		dst, skipped, err := t.copyLeaf(item.src, root.dst, item.mode, item.size)
		if err != nil {
			return err
		}
		if skipped {
			return nil
		}
		t.sel.Selected = append(t.sel.Selected, dst)
		if t.move {
			if err := os.Remove(item.src); err != nil {
				return fmt.Errorf("%s: %w", item.src, err)
			}
		}
		return nil
	}

	dst := root.dst
	if pathExists(dst) {
		dstInfo, err := os.Stat(dst)
		if err != nil {
			return fmt.Errorf("%s: %w", dst, err)
		}
		if !dstInfo.IsDir() {
			// Directory arriving onto an existing file: resolve at the root,
			// the decision covers the whole subtree.
			srcInfo, err := os.Stat(root.src)
			if err != nil {
				return fmt.Errorf("%s: %w", root.src, err)
			}
			decision := t.res.resolve(t.ctx, conflictItem(root.src, srcInfo), conflictItem(dst, dstInfo), t.leavesLeft > root.files)
			switch decision {
			case DecisionReplace:
				if err := deleteItem(dst); err != nil {
					return fmt.Errorf("%s: %w", dst, err)
				}
			case DecisionKeepBoth:
				dst = keepBothPath(dst, t.taken)
			case DecisionSkip:
				t.sel.Ignored = append(t.sel.Ignored, root.src)
				t.bytesDone += root.bytes
				t.leavesLeft -= root.files
				t.progress()
				return nil
			case DecisionCancel:
				return ErrCancelled
			}
		}
		// Existing directory destination: merge, conflicts resolve per file.
	}

	if err := os.MkdirAll(dst, root.mode.Perm()); err != nil {
		return fmt.Errorf("%s: %w", dst, err)
	}

	skippedAny := false
	for _, item := range root.items {
		itemDst := filepath.Join(dst, item.rel)
		if item.isDir {
			if err := t.ctl.Check(t.ctx); err != nil {
				return err
			}
			if err := os.MkdirAll(itemDst, item.mode.Perm()); err != nil {
				return fmt.Errorf("%s: %w", itemDst, err)
			}
			continue
		}
		if _, skipped, err := t.copyLeaf(item.src, itemDst, item.mode, item.size); err != nil {
			return err
		} else if skipped {
			skippedAny = true
		}
	}

	t.sel.Selected = append(t.sel.Selected, dst)

	// Deleting the source after a move would lose any file the user chose to
	// skip, so the source tree is left in place when anything was skipped.
	if t.move && !skippedAny {
		if err := os.RemoveAll(root.src); err != nil {
			return fmt.Errorf("%s: %w", root.src, err)
		}
	}
	return nil
}

// copyLeaf copies one file, resolving a destination collision first. It
// returns the final destination path (KeepBoth may have renamed it) and
// whether the file was skipped.
func (t *transferState) copyLeaf(src, dst string, mode iofs.FileMode, size int64) (string, bool, error) {
	if err := t.ctl.Check(t.ctx); err != nil {
		return "", false, err
	}
	t.leavesLeft--

	if pathExists(dst) {
		srcInfo, err := os.Stat(src)
		if err != nil {
			return "", false, fmt.Errorf("%s: %w", src, err)
		}
		dstInfo, err := os.Stat(dst)
		if err != nil {
			return "", false, fmt.Errorf("%s: %w", dst, err)
		}
		t.ctl.SetState("Waiting for confirmation")
		decision := t.res.resolve(t.ctx, conflictItem(src, srcInfo), conflictItem(dst, dstInfo), t.leavesLeft > 0)
		debug.Log(debug.OP, "conflict at %s: %s", dst, decision)
		switch decision {
		case DecisionReplace:
			// os.Create below truncates the destination.
		case DecisionSkip:
			t.sel.Ignored = append(t.sel.Ignored, src)
			t.bytesDone += size
			t.progress()
			return dst, true, nil
		case DecisionKeepBoth:
			dst = keepBothPath(dst, t.taken)
		case DecisionCancel:
			return "", false, ErrCancelled
		}
	}

	t.ctl.SetState(fmt.Sprintf("Copying %s (%s of %s)",
		filepath.Base(src), humanize.Bytes(uint64(t.bytesDone)), humanize.Bytes(uint64(t.totalBytes))))

	if err := t.copyFile(src, dst, mode); err != nil {
		return "", false, err
	}
	return dst, false, nil
}

// copyFile performs the byte copy through opReader so cancellation, pause and
// progress all apply per read chunk.
func (t *transferState) copyFile(src, dst string, mode iofs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%s: %w", dst, err)
	}
	defer out.Close()

	reader := &opReader{
		r:   in,
		ctx: t.ctx,
		ctl: t.ctl,
		onRead: func(n int64) {
			t.bytesDone += n
			t.progress()
		},
	}
	if _, err := io.Copy(out, reader); err != nil {
		if errors.Is(err, ErrCancelled) {
			return ErrCancelled
		}
		return fmt.Errorf("%s: %w", src, err)
	}
	if err := os.Chmod(dst, mode.Perm()); err != nil {
		return fmt.Errorf("%s: %w", dst, err)
	}
	return nil
}

// ============================================================================
// Delete / Restore / EmptyTrash
// ============================================================================

// trashPaths moves each path to the trash, or deletes permanently when no
// trash storage is available. Progress is item-count weighted: inode
// operations, not bytes, are the bottleneck here.
func (o Operation) trashPaths(ctx context.Context, ctl *Controller) (Selection, error) {
	var sel Selection
	total := len(o.Paths)
	useTrash := !o.Permanent && trash.Available()

	for i, path := range o.Paths {
		if err := ctl.Check(ctx); err != nil {
			ctl.SetState("Cancelled")
			return sel, err
		}
		ctl.SetState(fmt.Sprintf("Deleting %s (%d of %d)", filepath.Base(path), i+1, total))

		var err error
		if useTrash {
			err = trash.Put(path)
		} else {
			err = trash.PermanentDelete(path)
		}
		if err != nil {
			return sel, fmt.Errorf("%s: %w", path, err)
		}
		sel.Selected = append(sel.Selected, path)
		ctl.SetProgress(float64(i+1) / float64(total))
	}

	ctl.SetProgress(1)
	ctl.SetState("Complete")
	return sel, nil
}

// restoreItems restores trashed entries to their original locations.
func (o Operation) restoreItems(ctx context.Context, ctl *Controller) (Selection, error) {
	var sel Selection
	total := len(o.Items)

	for i, item := range o.Items {
		if err := ctl.Check(ctx); err != nil {
			ctl.SetState("Cancelled")
			return sel, err
		}
		ctl.SetState(fmt.Sprintf("Restoring %s (%d of %d)", item.Name, i+1, total))

		if err := trash.Restore(item); err != nil {
			return sel, fmt.Errorf("%s: %w", item.Name, err)
		}
		sel.Selected = append(sel.Selected, item.OriginalPath)
		ctl.SetProgress(float64(i+1) / float64(total))
	}

	ctl.SetProgress(1)
	ctl.SetState("Complete")
	return sel, nil
}

// emptyTrash permanently deletes every trashed entry, item-count weighted.
func (o Operation) emptyTrash(ctx context.Context, ctl *Controller) (Selection, error) {
	ctl.SetState("Listing trash")
	items, err := trash.List()
	if err != nil {
		return Selection{}, fmt.Errorf("trash: %w", err)
	}
	total := len(items)

	for i, item := range items {
		if err := ctl.Check(ctx); err != nil {
			ctl.SetState("Cancelled")
			return Selection{}, err
		}
		ctl.SetState(fmt.Sprintf("Emptying trash (%d of %d)", i+1, total))
		if err := trash.Remove(item); err != nil {
			return Selection{}, fmt.Errorf("%s: %w", item.Name, err)
		}
		ctl.SetProgress(float64(i+1) / float64(total))
	}

	ctl.SetProgress(1)
	ctl.SetState("Complete")
	return Selection{}, nil
}

// ============================================================================
// Rename / NewFolder
// ============================================================================

// rename performs a single atomic rename. Renames fail fast when the
// destination exists; the dialog layer pre-validates names instead of
// routing through the conflict prompt.
func (o Operation) rename(ctx context.Context, ctl *Controller) (Selection, error) {
	if err := ctl.Check(ctx); err != nil {
		ctl.SetState("Cancelled")
		return Selection{}, err
	}
	ctl.SetState("Renaming " + filepath.Base(o.From))

	if pathExists(o.To) {
		return Selection{}, fmt.Errorf("%s: %w", o.To, os.ErrExist)
	}
	if err := os.Rename(o.From, o.To); err != nil {
		return Selection{}, fmt.Errorf("%s: %w", o.From, err)
	}

	ctl.SetProgress(1)
	ctl.SetState("Complete")
	return Selection{Selected: []string{o.To}}, nil
}

// newFolder creates a single directory, failing if the path exists.
func (o Operation) newFolder(ctx context.Context, ctl *Controller) (Selection, error) {
	if err := ctl.Check(ctx); err != nil {
		ctl.SetState("Cancelled")
		return Selection{}, err
	}
	ctl.SetState("Creating folder " + filepath.Base(o.To))

	if err := os.Mkdir(o.To, dirPermission); err != nil {
		return Selection{}, fmt.Errorf("%s: %w", o.To, err)
	}

	ctl.SetProgress(1)
	ctl.SetState("Complete")
	return Selection{Selected: []string{o.To}}, nil
}
