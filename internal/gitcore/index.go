package gitcore

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // index checksum trailer, not the object hash
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/treeset"
)

// Git index file constants.
const (
	// indexMagic is the 4-byte signature that begins every .git/index file.
	indexMagic = "DIRC"

	// indexVersion is the only on-disk format version this core reads or
	// writes (spec §4.3).
	indexVersion = 2

	// indexFixedEntrySize is the number of bytes occupied by the fixed-size
	// fields of each index entry (ctime through flags, inclusive), before the
	// variable-length null-terminated path begins.
	//
	// Breakdown:
	//   ctime_sec   4
	//   ctime_nsec  4
	//   mtime_sec   4
	//   mtime_nsec  4
	//   device      4
	//   inode       4
	//   mode        4
	//   uid         4
	//   gid         4
	//   file_size   4
	//   sha1       20
	//   flags       2
	//   total      62
	indexFixedEntrySize = 62

	// indexEntryAlignment is the boundary to which each entry's total length
	// (fixed fields + path + NUL + padding) must be a multiple of.
	indexEntryAlignment = 8

	// indexFlagStageMask isolates bits 12-13 of the flags field, which encode
	// the merge stage (0=normal, 1=base, 2=ours, 3=theirs).
	indexFlagStageMask = 0x3000

	// indexFlagStageShift is the bit-shift to extract the stage value from flags.
	indexFlagStageShift = 12
)

// IndexEntry represents a single entry in the Git index (staging area).
// The index stores the cached stat information and blob hash for each tracked
// file so that Git can quickly detect which files have changed on disk.
type IndexEntry struct {
	CtimeSec  uint32
	CtimeNsec uint32
	MtimeSec  uint32
	MtimeNsec uint32
	Device    uint32
	Inode     uint32
	// Mode encodes the file type and permissions, e.g. 0100644 (regular),
	// 0100755 (executable).
	Mode     uint32
	UID      uint32
	GID      uint32
	FileSize uint32
	// Hash is the SHA-1 of the blob object that the index records for this path.
	Hash  Hash
	Flags uint16
	// Stage is the merge conflict stage extracted from flags bits 12-13.
	// 0 = normal (not in a merge conflict), 1 = base, 2 = ours, 3 = theirs.
	Stage int
	// Path is the null-terminated path of the file, relative to the repo root.
	Path string
}

// modeString returns the spec §3 mode string ("100644"/"100755") for e.
func (e IndexEntry) modeString() string {
	return normalizeMode(e.Mode & 0o777)
}

// Index is the in-memory staging area: a path-ordered B-tree of entries
// (spec §2 row 5) plus a directory→descendant-paths index that makes
// directory/file conflict resolution and Remove's subtree cleanup cheap.
// gods' treemap/treeset back both, the way go-git's commit-graph walkers and
// antgroup-hugescm's index lean on the same package for ordered containers.
type Index struct {
	gitDir string

	// byPath maps path -> *IndexEntry, ordered lexicographically; iterating
	// Keys() yields entries in the ascending path order spec invariant I4
	// requires on disk.
	byPath *treemap.Map

	// parents maps a directory path -> the set of entry paths that live
	// beneath it (spec invariant I3), used both for conflict resolution and
	// for has_entry/Remove's descendant lookup.
	parents map[string]*treeset.Set

	dirty bool
	lock  *Lockfile
}

// NewIndex returns an empty Index bound to gitDir, with no lock held.
func NewIndex(gitDir string) *Index {
	return &Index{
		gitDir:  gitDir,
		byPath:  treemap.NewWithStringComparator(),
		parents: make(map[string]*treeset.Set),
	}
}

// indexPath returns the path to .git/index.
func indexPath(gitDir string) string {
	return filepath.Join(gitDir, "index")
}

// LoadIndex reads .git/index inside gitDir into a fresh Index. A missing
// index file is not an error — it means nothing is staged yet (spec §4.3
// load semantics mirror a freshly initialized repository).
func LoadIndex(gitDir string) (*Index, error) {
	idx := NewIndex(gitDir)

	data, err := os.ReadFile(indexPath(gitDir)) //nolint:gosec // gitDir is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("LoadIndex: %w", err)
	}

	entries, err := parseIndexEntries(data)
	if err != nil {
		return nil, fmt.Errorf("LoadIndex: %w", err)
	}
	for _, e := range entries {
		idx.insertRaw(e)
	}
	return idx, nil
}

// parseIndexEntries decodes the raw bytes of a .git/index file into its
// stage-0 entries, in on-disk order. All multi-byte integers are big-endian
// per the Git index specification.
//
// The last 20 bytes of data are a SHA-1 checksum over everything before them
// (spec §4.3 Read: "Validate the trailing SHA-1 equals the digest of
// everything read before it; mismatch => Corrupt", matching
// original_source/src/index.rs:90's digest assertion). The header and every
// entry, including stage>0 entries this function filters out of the
// returned slice, are hashed as they're consumed so the digest matches what
// Save wrote it over.
func parseIndexEntries(data []byte) ([]IndexEntry, error) {
	const (
		headerSize   = 12
		checksumSize = 20
	)
	if len(data) < headerSize+checksumSize {
		return nil, fmt.Errorf("file too short to contain a valid header and checksum (%d bytes)", len(data))
	}
	if string(data[:4]) != indexMagic {
		return nil, fmt.Errorf("invalid magic signature: expected %q, got %q", indexMagic, string(data[:4]))
	}
	version := binary.BigEndian.Uint32(data[4:8])
	if version != indexVersion {
		return nil, fmt.Errorf("unsupported index version %d (only version 2 is supported)", version)
	}
	numEntries := binary.BigEndian.Uint32(data[8:12])

	trailerStart := len(data) - checksumSize
	digest := sha1.New() //nolint:gosec // index checksum trailer format, not object hashing
	digest.Write(data[:headerSize])

	entries := make([]IndexEntry, 0, numEntries)
	offset := headerSize
	for i := uint32(0); i < numEntries; i++ {
		entry, consumed, err := parseIndexEntry(data, offset)
		if err != nil {
			return nil, fmt.Errorf("entry %d at offset %d: %w", i, offset, err)
		}
		if offset+consumed > trailerStart {
			return nil, fmt.Errorf("entry %d at offset %d: extends into checksum trailer: %w", i, offset, ErrCorrupt)
		}
		digest.Write(data[offset : offset+consumed])
		if entry.Stage == 0 {
			entries = append(entries, entry)
		}
		offset += consumed
	}

	if offset != trailerStart {
		return nil, fmt.Errorf("parseIndexEntries: %d trailing bytes before checksum: %w", trailerStart-offset, ErrCorrupt)
	}

	trailer := data[trailerStart:]
	if !bytes.Equal(digest.Sum(nil), trailer) {
		return nil, fmt.Errorf("parseIndexEntries: checksum mismatch: %w", ErrCorrupt)
	}

	return entries, nil
}

// parseIndexEntry decodes one index entry from data starting at startOffset.
// It returns the entry and the total number of bytes consumed (fixed fields +
// path + NUL terminator + alignment padding).
func parseIndexEntry(data []byte, startOffset int) (IndexEntry, int, error) {
	if startOffset+indexFixedEntrySize > len(data) {
		return IndexEntry{}, 0, fmt.Errorf(
			"not enough data for fixed entry fields: need %d bytes, have %d",
			indexFixedEntrySize, len(data)-startOffset,
		)
	}

	p := data[startOffset:]

	var entry IndexEntry
	entry.CtimeSec = binary.BigEndian.Uint32(p[0:4])
	entry.CtimeNsec = binary.BigEndian.Uint32(p[4:8])
	entry.MtimeSec = binary.BigEndian.Uint32(p[8:12])
	entry.MtimeNsec = binary.BigEndian.Uint32(p[12:16])
	entry.Device = binary.BigEndian.Uint32(p[16:20])
	entry.Inode = binary.BigEndian.Uint32(p[20:24])
	entry.Mode = binary.BigEndian.Uint32(p[24:28])
	entry.UID = binary.BigEndian.Uint32(p[28:32])
	entry.GID = binary.BigEndian.Uint32(p[32:36])
	entry.FileSize = binary.BigEndian.Uint32(p[36:40])

	hashHex := hex.EncodeToString(p[40:60])
	hash, err := NewHash(hashHex)
	if err != nil {
		return IndexEntry{}, 0, fmt.Errorf("invalid blob hash: %w", err)
	}
	entry.Hash = hash

	entry.Flags = binary.BigEndian.Uint16(p[60:62])
	entry.Stage = int((entry.Flags & indexFlagStageMask) >> indexFlagStageShift)

	pathStart := startOffset + indexFixedEntrySize
	nullIdx := -1
	for i := pathStart; i < len(data); i++ {
		if data[i] == 0 {
			nullIdx = i
			break
		}
	}
	if nullIdx == -1 {
		return IndexEntry{}, 0, fmt.Errorf("null terminator not found for path starting at offset %d", pathStart)
	}
	entry.Path = string(data[pathStart:nullIdx])

	pathLen := nullIdx - pathStart
	rawLen := indexFixedEntrySize + pathLen + 1
	paddedLen := (rawLen + indexEntryAlignment - 1) &^ (indexEntryAlignment - 1)

	totalConsumed := paddedLen
	if startOffset+totalConsumed > len(data) {
		return IndexEntry{}, 0, fmt.Errorf(
			"entry extends beyond end of data: offset %d + paddedLen %d > fileLen %d",
			startOffset, totalConsumed, len(data),
		)
	}

	return entry, totalConsumed, nil
}

// insertRaw adds e to byPath/parents without conflict resolution; used only
// while loading an already-consistent on-disk index.
func (idx *Index) insertRaw(e IndexEntry) {
	ec := e
	idx.byPath.Put(e.Path, &ec)
	idx.trackParents(e.Path)
}

// trackParents registers path under every one of its strict ancestor
// directories' descendant sets (spec invariant I3).
func (idx *Index) trackParents(path string) {
	for _, d := range ancestors(path) {
		set, ok := idx.parents[d]
		if !ok {
			set = treeset.NewWithStringComparator()
			idx.parents[d] = set
		}
		set.Add(path)
	}
}

// untrackParents removes path from every ancestor directory's descendant
// set, pruning sets that become empty.
func (idx *Index) untrackParents(path string) {
	for _, d := range ancestors(path) {
		set, ok := idx.parents[d]
		if !ok {
			continue
		}
		set.Remove(path)
		if set.Empty() {
			delete(idx.parents, d)
		}
	}
}

// HasEntry reports whether path is tracked, either as a file entry or as a
// directory containing tracked entries (spec §4.3 "has_entry").
func (idx *Index) HasEntry(path string) bool {
	if _, ok := idx.byPath.Get(path); ok {
		return true
	}
	_, ok := idx.parents[path]
	return ok
}

// Get returns the entry at path, if any.
func (idx *Index) Get(path string) (*IndexEntry, bool) {
	v, ok := idx.byPath.Get(path)
	if !ok {
		return nil, false
	}
	return v.(*IndexEntry), true
}

// Paths returns every tracked path in ascending order (spec invariant I4).
func (idx *Index) Paths() []string {
	keys := idx.byPath.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.(string)
	}
	return out
}

// removeEntry deletes path's own entry (not its descendants) from both
// indexes.
func (idx *Index) removeEntry(path string) {
	if _, ok := idx.byPath.Get(path); ok {
		idx.byPath.Remove(path)
		idx.untrackParents(path)
	}
}

// Add constructs an entry for path from oid and info, resolves directory/file
// conflicts, and stages it (spec §4.3 "Add").
func (idx *Index) Add(path string, oid Hash, info fs.FileInfo) {
	idx.resolveConflicts(path)
	idx.insertRaw(newIndexEntry(path, oid, info))
	idx.dirty = true
}

// resolveConflicts enforces invariants I1/I2 before path is inserted:
// removing any ancestor-directory entry (a file becoming a directory) and
// any entry that lives beneath path (a directory collapsing to a file).
func (idx *Index) resolveConflicts(path string) {
	for _, d := range ancestors(path) {
		if _, ok := idx.byPath.Get(d); ok {
			idx.removeEntry(d)
		}
	}
	if set, ok := idx.parents[path]; ok {
		for _, v := range set.Values() {
			idx.removeEntry(v.(string))
		}
		delete(idx.parents, path)
	}
}

// Remove deletes path and every entry nested beneath it (spec §4.3 "Remove").
func (idx *Index) Remove(path string) {
	if set, ok := idx.parents[path]; ok {
		for _, v := range set.Values() {
			idx.removeEntry(v.(string))
		}
		delete(idx.parents, path)
	}
	idx.removeEntry(path)
	idx.dirty = true
}

// ApplyMigration brings the index in line with a migration already applied
// to the workspace: deleted paths drop out, and every Create/Update path is
// re-staged from its freshly written file so the index matches the working
// tree exactly (spec §4.3 "apply_migration").
func (idx *Index) ApplyMigration(plan *Migration, ws *Workspace) error {
	for _, step := range plan.Removes {
		idx.Remove(step.Path)
	}
	for _, step := range append(append([]MigrationStep{}, plan.Creates...), plan.Updates...) {
		info, err := ws.StatFile(step.Path)
		if err != nil {
			return fmt.Errorf("Index.ApplyMigration: %s: %w", step.Path, err)
		}
		idx.Add(step.Path, step.After.ID, info)
	}
	return nil
}

// newIndexEntry builds an IndexEntry from a stat result the way spec §4.3
// fills cache fields, using the POSIX stat extensions (ctime, dev, ino) the
// original_source implementation reads via MetadataExt.
func newIndexEntry(path string, oid Hash, info fs.FileInfo) IndexEntry {
	e := IndexEntry{
		Path:     path,
		Hash:     oid,
		FileSize: uint32(info.Size()), //nolint:gosec // file sizes tracked here are small
		Mode:     statMode(info),
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		e.CtimeSec = uint32(st.Ctim.Sec)  //nolint:gosec // truncation matches git's own 32-bit cache fields
		e.CtimeNsec = uint32(st.Ctim.Nsec) //nolint:gosec
		e.MtimeSec = uint32(st.Mtim.Sec)   //nolint:gosec
		e.MtimeNsec = uint32(st.Mtim.Nsec) //nolint:gosec
		e.Device = uint32(st.Dev)          //nolint:gosec
		e.Inode = uint32(st.Ino)           //nolint:gosec
		e.UID = st.Uid
		e.GID = st.Gid
	}
	pathLen := len(path)
	if pathLen > 0xFFF {
		pathLen = 0xFFF
	}
	e.Flags = uint16(pathLen) //nolint:gosec // clamped above
	return e
}

// statMode maps a filesystem FileInfo to the git-style mode word (0100644 or
// 0100755) recorded in the index.
func statMode(info fs.FileInfo) uint32 {
	if info.Mode()&0o111 != 0 {
		return 0o100755
	}
	return 0o100644
}

// StatMatch reports whether the on-disk stat info still matches the cached
// entry closely enough to skip hashing (spec §4.3 "stat_match").
func StatMatch(e *IndexEntry, info fs.FileInfo) bool {
	return e.Mode == statMode(info) && e.FileSize == uint32(info.Size()) //nolint:gosec
}

// StatTimesMatch additionally requires every cached timestamp/identity field
// to match (spec §4.3 "stat_times_match").
func StatTimesMatch(e *IndexEntry, info fs.FileInfo) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return e.CtimeSec == uint32(st.Ctim.Sec) && //nolint:gosec
		e.CtimeNsec == uint32(st.Ctim.Nsec) && //nolint:gosec
		e.MtimeSec == uint32(st.Mtim.Sec) && //nolint:gosec
		e.MtimeNsec == uint32(st.Mtim.Nsec) && //nolint:gosec
		e.Device == uint32(st.Dev) && //nolint:gosec
		e.Inode == uint32(st.Ino) //nolint:gosec
}

// RefreshStat overwrites e's cached stat fields from info without touching
// Hash — the "cache repair" spec §4.3 describes when a hash comparison finds
// the content unchanged despite differing timestamps.
func RefreshStat(e *IndexEntry, info fs.FileInfo) {
	fresh := newIndexEntry(e.Path, e.Hash, info)
	fresh.Path = e.Path
	*e = fresh
}

// packEntry serializes one entry in on-disk order (spec §6 "Index format").
func packEntry(e *IndexEntry) []byte {
	buf := make([]byte, indexFixedEntrySize, indexFixedEntrySize+len(e.Path)+8)
	binary.BigEndian.PutUint32(buf[0:4], e.CtimeSec)
	binary.BigEndian.PutUint32(buf[4:8], e.CtimeNsec)
	binary.BigEndian.PutUint32(buf[8:12], e.MtimeSec)
	binary.BigEndian.PutUint32(buf[12:16], e.MtimeNsec)
	binary.BigEndian.PutUint32(buf[16:20], e.Device)
	binary.BigEndian.PutUint32(buf[20:24], e.Inode)
	binary.BigEndian.PutUint32(buf[24:28], e.Mode)
	binary.BigEndian.PutUint32(buf[28:32], e.UID)
	binary.BigEndian.PutUint32(buf[32:36], e.GID)
	binary.BigEndian.PutUint32(buf[36:40], e.FileSize)

	raw, _ := decodeHexOID(string(e.Hash))
	copy(buf[40:60], raw[:])
	binary.BigEndian.PutUint16(buf[60:62], e.Flags)

	buf = append(buf, e.Path...)
	buf = append(buf, 0)
	for len(buf)%indexEntryAlignment != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// Save writes the index to disk through its lockfile if there are pending
// changes (spec §4.3/§9: index writes are visible only after rename). It is
// a no-op if nothing has changed since load.
func (idx *Index) Save() error {
	if !idx.dirty {
		return nil
	}

	lock := NewLockfile(indexPath(idx.gitDir))
	if err := lock.Acquire(); err != nil {
		return err
	}
	idx.lock = lock

	digest := sha1.New() //nolint:gosec // index checksum trailer format, not object hashing
	write := func(p []byte) error {
		if _, err := lock.Write(p); err != nil {
			return err
		}
		digest.Write(p)
		return nil
	}

	header := make([]byte, 12)
	copy(header[0:4], indexMagic)
	binary.BigEndian.PutUint32(header[4:8], indexVersion)
	binary.BigEndian.PutUint32(header[8:12], uint32(idx.byPath.Size())) //nolint:gosec
	if err := write(header); err != nil {
		_ = lock.Release()
		return fmt.Errorf("Index.Save: %w", err)
	}

	for _, k := range idx.byPath.Keys() {
		v, _ := idx.byPath.Get(k)
		if err := write(packEntry(v.(*IndexEntry))); err != nil {
			_ = lock.Release()
			return fmt.Errorf("Index.Save: %w", err)
		}
	}

	if _, err := lock.Write(digest.Sum(nil)); err != nil {
		_ = lock.Release()
		return fmt.Errorf("Index.Save: %w", err)
	}

	if err := lock.Commit(); err != nil {
		return fmt.Errorf("Index.Save: %w", err)
	}
	idx.dirty = false
	return nil
}

