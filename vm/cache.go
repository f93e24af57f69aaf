package vm

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// callCountThreshold is the call count below which a function recorded in
// a prior manifest is skipped on the next GenerateAllCode, rather than
// unconditionally recompiled. It is a compile-effort heuristic only; it
// never changes program output (§8 invariant 3).
const callCountThreshold = 1

// cacheManifest is the warm-start cache's on-disk record: a module
// fingerprint, a run identifier for the writer that produced it, and a
// per-function call-count/compiled snapshot from the run that wrote it.
type cacheManifest struct {
	RunID       string         `cbor:"run_id"`
	Fingerprint string         `cbor:"fingerprint"`
	Functions   []functionStat `cbor:"functions"`
}

type functionStat struct {
	Index       int  `cbor:"index"`
	CallCount   int  `cbor:"call_count"`
	WasCompiled bool `cbor:"was_compiled"`
}

// shouldSkip reports whether function index was recorded as called fewer
// than callCountThreshold times and was not compiled in the run that
// wrote this manifest, meaning compiling it again is unlikely to be
// worthwhile. An index outside the recorded set is never skipped.
func (m *cacheManifest) shouldSkip(index int) bool {
	for _, fs := range m.Functions {
		if fs.Index == index {
			return !fs.WasCompiled && fs.CallCount < callCountThreshold
		}
	}
	return false
}

// jitCache reads and writes a cacheManifest at a fixed path.
type jitCache struct {
	path string
}

func newJITCache(path string) *jitCache {
	return &jitCache{path: path}
}

// load reads the manifest at c.path, if present, and returns it only if
// its fingerprint matches module's current fingerprint. A missing file,
// a read error, or a fingerprint mismatch (the module changed since the
// manifest was written) all result in a nil manifest and no error:
// the cache is advisory, so any of these just means "compile everything".
func (c *jitCache) load(module *Module) (*cacheManifest, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, nil
	}
	var manifest cacheManifest
	if err := cbor.Unmarshal(data, &manifest); err != nil {
		return nil, nil
	}
	if manifest.Fingerprint != fingerprint(module) {
		return nil, nil
	}
	return &manifest, nil
}

// save writes a fresh manifest reflecting which function indices ended up
// with a compiled entry after the GenerateAllCode call that produced
// compiled. Call counts are not tracked by this reference implementation
// (the core has no profiling hook), so every recorded function carries a
// zero call count; a zero count below the threshold only ever causes a
// skip for functions that were also not compiled, which keeps the policy
// conservative until real profiling is wired in.
func (c *jitCache) save(module *Module, compiled []NativeEntry) error {
	manifest := cacheManifest{
		RunID:       uuid.NewString(),
		Fingerprint: fingerprint(module),
		Functions:   make([]functionStat, len(compiled)),
	}
	for i := range compiled {
		manifest.Functions[i] = functionStat{
			Index:       i,
			CallCount:   0,
			WasCompiled: compiled[i] != nil,
		}
	}
	data, err := cbor.Marshal(manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}

// fingerprint derives a content fingerprint of module's function specs
// (name, arity, register count, instruction count, and every instruction
// word, in order), stable
// across runs of the same module and sensitive to any structural change.
func fingerprint(module *Module) string {
	h := sha256.New()
	for _, fn := range module.Functions {
		h.Write([]byte(fn.Name))
		writeInt(h, fn.Nargs)
		writeInt(h, fn.Nregs)
		writeInt(h, len(fn.Instructions))
		for _, ins := range fn.Instructions {
			writeInt(h, int(ins.Raw()))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeInt(h interface{ Write([]byte) (int, error) }, n int) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(n >> (8 * i))
	}
	h.Write(buf[:])
}
