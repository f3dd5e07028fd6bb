// Package library reads the on-disk layout: downloaded sources and the
// per-song folders of separated stems and takes.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"github.com/satindergrewal/okecreator/internal/demucs"
	"github.com/satindergrewal/okecreator/internal/take"
)

// SourceExts are the download extensions offered for separation.
var SourceExts = []string{".mp3", ".m4a", ".wav"}

var (
	ErrOriginalNotFound = errors.New("original source not found")
	ErrStemNotFound     = errors.New("separated stem not found")
	ErrNoFreeVersion    = errors.New("no free take version")
)

// Source is one downloaded audio file.
type Source struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`

	// Embedded metadata, empty when the file carries none.
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
}

// ReadTags returns the embedded title and artist of an audio file.
// Untagged or unreadable files give empty strings.
func ReadTags(path string) (title, artist string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()
	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", ""
	}
	return strings.TrimSpace(m.Title()), strings.TrimSpace(m.Artist())
}

// Library is rooted at a downloads folder and a stems work folder
// (<work>/<song>/{vocals,no_vocals}.wav).
type Library struct {
	Downloads string
	Work      string
}

// New returns a Library over the two folders.
func New(downloads, work string) *Library {
	return &Library{Downloads: downloads, Work: work}
}

func isSource(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SourceExts {
		if ext == e {
			return true
		}
	}
	return false
}

// Sources lists downloads with a supported extension, sorted by name.
// A missing downloads folder yields an empty list.
func (l *Library) Sources() ([]Source, error) {
	entries, err := os.ReadDir(l.Downloads)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read downloads %s: %w", l.Downloads, err)
	}
	var out []Source
	for _, e := range entries {
		if e.IsDir() || !isSource(e.Name()) {
			continue
		}
		src := Source{Name: e.Name(), Path: filepath.Join(l.Downloads, e.Name())}
		if info, err := e.Info(); err == nil {
			src.Size = info.Size()
		}
		src.Title, src.Artist = ReadTags(src.Path)
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Source resolves a download by file name.
func (l *Library) Source(name string) (Source, error) {
	srcs, err := l.Sources()
	if err != nil {
		return Source{}, err
	}
	for _, s := range srcs {
		if s.Name == name {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("download %q: %w", name, os.ErrNotExist)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func stemFile(stem string) string { return stem + ".wav" }

// Songs lists folders of the work dir that hold a vocals stem, sorted.
func (l *Library) Songs() ([]string, error) {
	entries, err := os.ReadDir(l.Work)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read work dir %s: %w", l.Work, err)
	}
	var songs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if exists(filepath.Join(l.Work, e.Name(), stemFile(demucs.VocalsStem))) {
			songs = append(songs, e.Name())
		}
	}
	sort.Strings(songs)
	return songs, nil
}

// Stems returns the separated stems present for song, keyed by track type.
func (l *Library) Stems(song string) map[take.Type]string {
	out := make(map[take.Type]string, 2)
	for _, t := range []take.Type{take.Vocals, take.NoVocals} {
		stem, _ := t.Stem()
		p := filepath.Join(l.Work, song, stemFile(stem))
		if exists(p) {
			out[t] = p
		}
	}
	return out
}

// Original finds the first download whose name contains song,
// case-insensitively, then falls back to the embedded title.
func (l *Library) Original(song string) (string, error) {
	srcs, err := l.Sources()
	if err != nil {
		return "", err
	}
	needle := strings.ToLower(song)
	for _, s := range srcs {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			return s.Path, nil
		}
	}
	for _, s := range srcs {
		if s.Title != "" && strings.EqualFold(s.Title, song) {
			return s.Path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrOriginalNotFound, song)
}

// Input resolves the file a take of the given type is made from.
func (l *Library) Input(song string, t take.Type) (string, error) {
	if t == take.Original {
		return l.Original(song)
	}
	if p, ok := l.Stems(song)[t]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s/%s", ErrStemNotFound, song, t)
}

// NextVersion returns the lowest version whose conventional take file does
// not exist yet.
func (l *Library) NextVersion(spec take.Spec) (int, error) {
	for v := take.MinVersion; v <= take.MaxVersion; v++ {
		spec.Version = v
		if !exists(take.Path(l.Work, spec.Song, spec.Name())) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrNoFreeVersion, spec.Song)
}

// Takes lists produced .wav files in a song folder other than the stems.
func (l *Library) Takes(song string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.Work, song))
	if err != nil {
		return nil, fmt.Errorf("read song dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), take.Ext) {
			continue
		}
		if name == stemFile(demucs.VocalsStem) || name == stemFile(demucs.NoVocalsStem) {
			continue
		}
		out = append(out, filepath.Join(l.Work, song, name))
	}
	sort.Strings(out)
	return out, nil
}
