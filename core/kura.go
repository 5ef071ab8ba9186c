package core

// kura.go - the append-only, crash-consistent block store. Grounded on
// ledger.go's WAL (open O_APPEND, write, fsync, replay via a scanning
// decoder) combined with storage.go's on-disk archival texture (dedicated
// zap logger, gzip-compressed compaction). Blocks are plain JSON records
// written back to back with no length prefix; a separate fixed-width index
// file maps height to (offset, length, checksum), and the data file holding a
// height is height/BlocksPerFile, so random access never requires scanning
// the data file.

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// KuraConfig configures the on-disk layout of the block store.
type KuraConfig struct {
	Dir            string
	BlocksPerFile  uint64
	ArchiveOlderThan uint64 // not read by Kura; archiving happens only through explicit ArchiveFile calls
}

// DefaultKuraConfig mirrors the reference node's defaults.
var DefaultKuraConfig = KuraConfig{Dir: "data/kura", BlocksPerFile: 1000}

type indexRecord struct {
	Height   uint64
	Offset   int64
	Length   int64
	Checksum uint32
}

const indexRecordSize = 8 + 8 + 8 + 4

// Kura is the block store. A single instance must not be shared across
// processes; within a process it is safe for concurrent Append/GetBlock
// calls, though Sumeragi's single-threaded loop is the only Append caller in
// practice.
type Kura struct {
	mu    sync.Mutex
	cfg   KuraConfig
	index []indexRecord
	log   *zap.SugaredLogger

	openData   map[uint64]*os.File
	indexFile  *os.File
}

// OpenKura opens (creating if necessary) the block store at cfg.Dir,
// replaying its index and truncating any trailing entry whose checksum does
// not match its data file contents -- the same "distrust the last record"
// recovery posture ledger.go's WAL replay takes after an unclean shutdown.
func OpenKura(cfg KuraConfig, log *zap.SugaredLogger) (*Kura, error) {
	if cfg.BlocksPerFile == 0 {
		cfg.BlocksPerFile = DefaultKuraConfig.BlocksPerFile
	}
	if log == nil {
		l, _ := zap.NewProduction()
		log = l.Sugar()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("kura: mkdir %s: %w", cfg.Dir, err)
	}
	k := &Kura{cfg: cfg, log: log, openData: map[uint64]*os.File{}}

	idxPath := filepath.Join(cfg.Dir, "index.dat")
	f, err := os.OpenFile(idxPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("kura: open index: %w", err)
	}
	k.indexFile = f

	if err := k.loadIndex(); err != nil {
		return nil, err
	}
	if err := k.verifyAndTruncateTail(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kura) loadIndex() error {
	if _, err := k.indexFile.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r := bufio.NewReader(k.indexFile)
	for {
		buf := make([]byte, indexRecordSize)
		_, err := io.ReadFull(r, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return fmt.Errorf("kura: read index: %w", err)
		}
		rec := indexRecord{
			Height:   binary.BigEndian.Uint64(buf[0:8]),
			Offset:   int64(binary.BigEndian.Uint64(buf[8:16])),
			Length:   int64(binary.BigEndian.Uint64(buf[16:24])),
			Checksum: binary.BigEndian.Uint32(buf[24:28]),
		}
		k.index = append(k.index, rec)
	}
	return nil
}

// verifyAndTruncateTail reads the data bytes for the last indexed block and
// confirms its checksum; a mismatch (torn write from a crash mid-Append)
// drops that record and truncates both the index file and the affected data
// file back to the previous good boundary.
func (k *Kura) verifyAndTruncateTail() error {
	for len(k.index) > 0 {
		last := k.index[len(k.index)-1]
		data, err := k.readRaw(last)
		if err != nil {
			k.index = k.index[:len(k.index)-1]
			continue
		}
		if crc32.ChecksumIEEE(data) != last.Checksum {
			k.log.Warnw("kura: dropping corrupt tail block", "height", last.Height)
			if err := k.truncateDataAt(last); err != nil {
				return err
			}
			k.index = k.index[:len(k.index)-1]
			continue
		}
		break
	}
	return k.rewriteIndexFile()
}

func (k *Kura) rewriteIndexFile() error {
	if err := k.indexFile.Truncate(0); err != nil {
		return err
	}
	if _, err := k.indexFile.Seek(0, io.SeekStart); err != nil {
		return err
	}
	for _, rec := range k.index {
		if err := writeIndexRecord(k.indexFile, rec); err != nil {
			return err
		}
	}
	return k.indexFile.Sync()
}

func writeIndexRecord(w io.Writer, rec indexRecord) error {
	buf := make([]byte, indexRecordSize)
	binary.BigEndian.PutUint64(buf[0:8], rec.Height)
	binary.BigEndian.PutUint64(buf[8:16], uint64(rec.Offset))
	binary.BigEndian.PutUint64(buf[16:24], uint64(rec.Length))
	binary.BigEndian.PutUint32(buf[24:28], rec.Checksum)
	_, err := w.Write(buf)
	return err
}

func (k *Kura) dataPath(fileIndex uint64) string {
	return filepath.Join(k.cfg.Dir, fmt.Sprintf("blocks-%06d.data", fileIndex))
}

func (k *Kura) dataFile(fileIndex uint64, write bool) (*os.File, error) {
	if f, ok := k.openData[fileIndex]; ok {
		return f, nil
	}
	flags := os.O_RDONLY
	if write {
		flags = os.O_CREATE | os.O_RDWR
	}
	f, err := os.OpenFile(k.dataPath(fileIndex), flags, 0o644)
	if err != nil {
		return nil, err
	}
	k.openData[fileIndex] = f
	return f, nil
}

func (k *Kura) readRaw(rec indexRecord) ([]byte, error) {
	fileIndex := rec.Height / k.cfg.BlocksPerFile
	f, err := k.dataFile(fileIndex, false)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, rec.Length)
	if _, err := f.ReadAt(buf, rec.Offset); err != nil {
		return nil, err
	}
	return buf, nil
}

func (k *Kura) truncateDataAt(rec indexRecord) error {
	fileIndex := rec.Height / k.cfg.BlocksPerFile
	f, err := k.dataFile(fileIndex, true)
	if err != nil {
		return err
	}
	return f.Truncate(rec.Offset)
}

// Append writes block to the store. The caller must supply blocks in
// strictly increasing height order starting from LastHeight()+1 (or 0 for
// an empty store); Append does not itself re-derive height from the block
// payload so it stays agnostic to how Sumeragi numbers genesis.
func (k *Kura) Append(block *Block) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	height := block.Payload.Header.Height
	if height != k.nextHeightLocked() {
		return fmt.Errorf("kura: out-of-order append: expected height %d, got %d", k.nextHeightLocked(), height)
	}
	raw, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("kura: marshal block %d: %w", height, err)
	}
	fileIndex := height / k.cfg.BlocksPerFile
	f, err := k.dataFile(fileIndex, true)
	if err != nil {
		return fmt.Errorf("kura: open data file: %w", err)
	}
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err := f.Write(raw); err != nil {
		return fmt.Errorf("kura: write block %d: %w", height, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("kura: fsync block %d: %w", height, err)
	}
	rec := indexRecord{Height: height, Offset: offset, Length: int64(len(raw)), Checksum: crc32.ChecksumIEEE(raw)}
	if err := writeIndexRecord(k.indexFile, rec); err != nil {
		return fmt.Errorf("kura: write index: %w", err)
	}
	if err := k.indexFile.Sync(); err != nil {
		return fmt.Errorf("kura: fsync index: %w", err)
	}
	k.index = append(k.index, rec)
	k.log.Debugw("kura: appended block", "height", height, "bytes", len(raw))
	return nil
}

func (k *Kura) nextHeightLocked() uint64 {
	if len(k.index) == 0 {
		return 0
	}
	return k.index[len(k.index)-1].Height + 1
}

// LastHeight returns the height of the most recently appended block, or 0
// with ok=false if the store is empty.
func (k *Kura) LastHeight() (uint64, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.index) == 0 {
		return 0, false
	}
	return k.index[len(k.index)-1].Height, true
}

// GetBlock retrieves the block at the given height.
func (k *Kura) GetBlock(height uint64) (*Block, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, rec := range k.index {
		if rec.Height == height {
			raw, err := k.readRaw(rec)
			if err != nil {
				return nil, fmt.Errorf("kura: read block %d: %w", height, err)
			}
			if crc32.ChecksumIEEE(raw) != rec.Checksum {
				return nil, fmt.Errorf("kura: block %d failed checksum verification", height)
			}
			var b Block
			if err := json.Unmarshal(raw, &b); err != nil {
				return nil, fmt.Errorf("kura: decode block %d: %w", height, err)
			}
			return &b, nil
		}
	}
	return nil, fmt.Errorf("kura: block %d not found", height)
}

// Replay invokes fn for every stored block in height order, used to rebuild
// the WorldStateView at startup.
func (k *Kura) Replay(fn func(*Block) error) error {
	k.mu.Lock()
	heights := make([]uint64, len(k.index))
	for i, rec := range k.index {
		heights[i] = rec.Height
	}
	k.mu.Unlock()
	for _, h := range heights {
		b, err := k.GetBlock(h)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return fmt.Errorf("kura: replay block %d: %w", h, err)
		}
	}
	return nil
}

// ArchiveFile gzip-compresses data file number fileIndex (the heights from
// fileIndex*BlocksPerFile up to the next multiple of BlocksPerFile) into
// <file>.gz and removes the uncompressed original, freeing
// working-set disk space for cold block ranges. It refuses to archive the
// file that currently holds the chain tip.
func (k *Kura) ArchiveFile(fileIndex uint64) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.index) > 0 {
		tailFile := k.index[len(k.index)-1].Height / k.cfg.BlocksPerFile
		if fileIndex == tailFile {
			return fmt.Errorf("kura: refusing to archive the active tail file")
		}
	}
	src := k.dataPath(fileIndex)
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("kura: open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(src + ".gz")
	if err != nil {
		return fmt.Errorf("kura: create archive: %w", err)
	}
	defer out.Close()
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		return fmt.Errorf("kura: gzip: %w", err)
	}
	if err := gz.Close(); err != nil {
		return err
	}
	if f, ok := k.openData[fileIndex]; ok {
		f.Close()
		delete(k.openData, fileIndex)
	}
	return os.Remove(src)
}

// Close releases all open file descriptors.
func (k *Kura) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var firstErr error
	for _, f := range k.openData {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := k.indexFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
