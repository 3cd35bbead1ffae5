package macro

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const currentVersion = 1

// Export encodes every non-empty register as indented JSON:
//
//	{"version":1,"saved_at":"...","last_played":"a",
//	 "macros":[{"register":"a","requests":["{...}", ...]}]}
func Export(recorder *Recorder) ([]byte, error) {
	data, err := sjson.SetBytes([]byte(`{}`), "version", currentVersion)
	if err != nil {
		return nil, err
	}
	if data, err = sjson.SetBytes(data, "saved_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	if last := recorder.LastPlayed(); last != 0 {
		if data, err = sjson.SetBytes(data, "last_played", string(last)); err != nil {
			return nil, err
		}
	}
	if data, err = sjson.SetRawBytes(data, "macros", []byte(`[]`)); err != nil {
		return nil, err
	}
	for i, info := range recorder.Registers() {
		prefix := fmt.Sprintf("macros.%d.", i)
		if data, err = sjson.SetBytes(data, prefix+"register", string(info.Name)); err != nil {
			return nil, err
		}
		if data, err = sjson.SetBytes(data, prefix+"requests", recorder.Get(info.Name)); err != nil {
			return nil, err
		}
	}
	return pretty.Pretty(data), nil
}

// Import loads registers from data produced by Export. With merge set,
// registers that already hold requests are kept; otherwise every register
// is replaced.
func Import(recorder *Recorder, data []byte, merge bool) error {
	if !gjson.ValidBytes(data) {
		return errors.New("macro: malformed JSON")
	}
	root := gjson.ParseBytes(data)
	if v := root.Get("version").Int(); v > currentVersion {
		return fmt.Errorf("macro: unsupported version %d (max supported: %d)", v, currentVersion)
	}

	if !merge {
		recorder.ClearAll()
	}
	var err error
	root.Get("macros").ForEach(func(_, m gjson.Result) bool {
		name, perr := ParseRegister(m.Get("register").String())
		if perr != nil || IsAppendRegister(name) {
			return true
		}
		if merge && len(recorder.Get(name)) > 0 {
			return true
		}
		var lines []string
		for _, r := range m.Get("requests").Array() {
			lines = append(lines, r.String())
		}
		err = recorder.Set(name, lines)
		return err == nil
	})
	if err != nil {
		return err
	}

	if last, perr := ParseRegister(root.Get("last_played").String()); perr == nil && !IsAppendRegister(last) {
		recorder.setLastPlayed(last)
	}
	return nil
}

// Save writes the registers to path, replacing it atomically.
func Save(recorder *Recorder, path string) error {
	data, err := Export(recorder)
	if err != nil {
		return fmt.Errorf("encode macros: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write macros: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write macros: %w", err)
	}
	return nil
}

// Load replaces the registers with the contents of path. A missing file
// loads nothing.
func Load(recorder *Recorder, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read macros: %w", err)
	}
	return Import(recorder, data, false)
}
