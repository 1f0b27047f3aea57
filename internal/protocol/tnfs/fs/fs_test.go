package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenDir_LegacyIncludesDotEntries(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "a.txt"), "a")
	mustWriteFile(t, filepath.Join(dir, "b.txt"), "b")

	dh, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	defer dh.Close()

	var names []string
	for {
		name, ok := dh.ReadOne()
		if !ok {
			break
		}
		names = append(names, name)
	}

	if len(names) != 4 {
		t.Fatalf("got %d entries, want 4: %v", len(names), names)
	}
	if names[0] != "." || names[1] != ".." {
		t.Errorf("first two entries = %v, want [. ..]", names[:2])
	}

	if _, ok := dh.ReadOne(); ok {
		t.Error("read past end of materialized listing should report exhaustion")
	}
}

func TestOpenDirExtended_FilterAndSort(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "b.log"), "bb")
	mustWriteFile(t, filepath.Join(dir, "a.log"), "a")
	mustWriteFile(t, filepath.Join(dir, "c.txt"), "ccc")

	dh, err := OpenDirExtended(dir, ListOptions{Pattern: "*.log", Sort: SortByName})
	if err != nil {
		t.Fatalf("OpenDirExtended: %v", err)
	}
	defer dh.Close()

	batch := dh.ReadBatch(10)
	if len(batch) != 4 { // "." ".." a.log b.log
		t.Fatalf("got %d entries, want 4: %+v", len(batch), batch)
	}
	if batch[2].Name != "a.log" || batch[3].Name != "b.log" {
		t.Errorf("sorted order = %q, %q, want a.log, b.log", batch[2].Name, batch[3].Name)
	}
}

func TestOpenDirExtended_MaxEntries(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		mustWriteFile(t, filepath.Join(dir, name), name)
	}

	dh, err := OpenDirExtended(dir, ListOptions{MaxEntries: 2})
	if err != nil {
		t.Fatalf("OpenDirExtended: %v", err)
	}
	if got := len(dh.ReadBatch(100)); got != 2 {
		t.Errorf("got %d entries, want capped at 2", got)
	}
}

func TestOpenDirExtended_NoDotEntries(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "a"), "a")

	dh, err := OpenDirExtended(dir, ListOptions{KindMask: KindMaskNoDotEntries})
	if err != nil {
		t.Fatalf("OpenDirExtended: %v", err)
	}
	if dh.dotEntries {
		t.Error("dotEntries should be false when KindMaskNoDotEntries is set")
	}
	batch := dh.ReadBatch(10)
	if len(batch) != 1 || batch[0].Name != "a" {
		t.Fatalf("got %+v, want just [a]", batch)
	}
}

func TestOpenDirExtended_KindMaskFiltersKind(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "file.txt"), "x")
	if err := MkDir(filepath.Join(dir, "subdir")); err != nil {
		t.Fatalf("MkDir: %v", err)
	}

	dh, err := OpenDirExtended(dir, ListOptions{KindMask: KindMaskNoDotEntries | KindMaskDirs})
	if err != nil {
		t.Fatalf("OpenDirExtended: %v", err)
	}
	batch := dh.ReadBatch(10)
	if len(batch) != 1 || batch[0].Name != "subdir" {
		t.Fatalf("got %+v, want just [subdir]", batch)
	}
}

func TestOpenDirExtended_KindMaskHiddenExcludedByDefault(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, ".hidden"), "x")
	mustWriteFile(t, filepath.Join(dir, "visible"), "x")

	dh, err := OpenDirExtended(dir, ListOptions{KindMask: KindMaskNoDotEntries})
	if err != nil {
		t.Fatalf("OpenDirExtended: %v", err)
	}
	batch := dh.ReadBatch(10)
	if len(batch) != 1 || batch[0].Name != "visible" {
		t.Fatalf("got %+v, want just [visible]", batch)
	}

	dh2, err := OpenDirExtended(dir, ListOptions{KindMask: KindMaskNoDotEntries | KindMaskHidden})
	if err != nil {
		t.Fatalf("OpenDirExtended: %v", err)
	}
	if got := len(dh2.ReadBatch(10)); got != 2 {
		t.Errorf("with KindMaskHidden got %d entries, want 2", got)
	}
}

func TestDirHandle_TellAndSeekClamp(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "a"), "a")

	dh, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}

	if dh.Tell() != 0 {
		t.Fatalf("initial Tell = %d, want 0", dh.Tell())
	}
	dh.ReadOne()
	if dh.Tell() != 1 {
		t.Fatalf("Tell after one read = %d, want 1", dh.Tell())
	}

	if got := dh.Seek(1000); got != 3 { // ".", "..", "a"
		t.Errorf("Seek clamp = %d, want 3", got)
	}
	if got := dh.Seek(-5); got != 0 {
		t.Errorf("Seek negative clamp = %d, want 0", got)
	}
}

func TestMkDirRmDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "newdir")

	if err := MkDir(sub); err != nil {
		t.Fatalf("MkDir: %v", err)
	}
	info, err := os.Stat(sub)
	if err != nil || !info.IsDir() {
		t.Fatalf("MkDir did not create a directory: %v", err)
	}

	if err := RmDir(sub); err != nil {
		t.Fatalf("RmDir: %v", err)
	}
	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Error("directory still exists after RmDir")
	}
}

func TestFileOpenWriteReadSeek(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")

	fh, err := OpenFile(path, OpenRead|OpenWrite|OpenCreate)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer fh.Close()

	n, err := fh.WriteBlock([]byte("HELLO"))
	if err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if n != 5 {
		t.Fatalf("wrote %d bytes, want 5", n)
	}

	if _, err := fh.Seek(0, SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	data, eof, err := fh.ReadBlock(5)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if eof {
		t.Error("ReadBlock reported eof with data remaining")
	}
	if string(data) != "HELLO" {
		t.Errorf("ReadBlock = %q, want HELLO", data)
	}
}

func TestFileReadBlock_ShortReadAtEOF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	mustWriteFile(t, path, "0123456789"+string(make([]byte, 90)))

	fh, err := OpenFile(path, OpenRead)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer fh.Close()

	if _, err := fh.Seek(95, SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	data, eof, err := fh.ReadBlock(100)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if eof {
		t.Error("short read within file bounds is not EOF")
	}
	if len(data) != 5 {
		t.Fatalf("got %d bytes, want 5", len(data))
	}

	data2, eof2, err := fh.ReadBlock(100)
	if err != nil {
		t.Fatalf("ReadBlock at true eof: %v", err)
	}
	if !eof2 || len(data2) != 0 {
		t.Errorf("ReadBlock at eof = (%v, eof=%v), want (empty, eof=true)", data2, eof2)
	}
}

func TestFileStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	mustWriteFile(t, path, "hello world")

	st, err := StatFile(path)
	if err != nil {
		t.Fatalf("StatFile: %v", err)
	}
	if st.Size != int64(len("hello world")) {
		t.Errorf("Size = %d, want %d", st.Size, len("hello world"))
	}
}

func TestUnlinkFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	mustWriteFile(t, path, "x")

	if err := UnlinkFile(path); err != nil {
		t.Fatalf("UnlinkFile: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists after UnlinkFile")
	}
}

func TestRenameFile_AcrossDirectories(t *testing.T) {
	root := t.TempDir()
	srcDir := filepath.Join(root, "a")
	dstDir := filepath.Join(root, "b")
	if err := os.Mkdir(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(dstDir, 0o755); err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(srcDir, "x")
	dst := filepath.Join(dstDir, "x")
	mustWriteFile(t, src, "contents")

	if err := RenameFile(src, dst); err != nil {
		t.Fatalf("RenameFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still exists after rename")
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing after rename: %v", err)
	}
}

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}
