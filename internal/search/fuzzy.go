// Package search resolves a loose track query against a local music directory.
package search

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

var ErrNoMatch = errors.New("no track matches query")

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
}

// Track is an audio file found in the library.
type Track struct {
	Path  string
	Name  string
	Album string
}

type ScoredTrack struct {
	Track Track
	Score float64
}

type Library struct {
	root   string
	tracks []Track
}

// Scan walks root and collects every file with a known audio extension.
// The parent directory name stands in for the album.
func Scan(ctx context.Context, root string) (*Library, error) {
	lib := &Library{root: root}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !audioExtensions[ext] {
			return nil
		}
		lib.tracks = append(lib.tracks, Track{
			Path:  path,
			Name:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Album: filepath.Base(filepath.Dir(path)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan library %s: %w", root, err)
	}
	return lib, nil
}

func (l *Library) Tracks() []Track {
	return l.tracks
}

// Search returns the tracks matching query, best first.
func (l *Library) Search(query string, limit int) []Track {
	if query == "" {
		return nil
	}

	var scored []ScoredTrack
	queryLower := strings.ToLower(query)

	for _, track := range l.tracks {
		score := scoreTrack(track, queryLower)
		if score > 0 {
			scored = append(scored, ScoredTrack{Track: track, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	result := make([]Track, 0, len(scored))
	for _, s := range scored {
		result = append(result, s.Track)
	}
	return result
}

// Resolve returns the path of the best match for query.
func (l *Library) Resolve(query string) (string, error) {
	matches := l.Search(query, 1)
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoMatch, query)
	}
	return matches[0].Path, nil
}

func scoreTrack(track Track, queryLower string) float64 {
	score := 0.0
	name := strings.ToLower(track.Name)

	if strings.Contains(name, queryLower) {
		score += 10.0
	} else if fuzzy.MatchFold(queryLower, name) {
		score += 3.0
	}

	distance := fuzzy.LevenshteinDistance(queryLower, name)
	if distance <= len(queryLower)/2 {
		score += float64(len(queryLower) - distance)
	}

	if strings.Contains(strings.ToLower(track.Album), queryLower) {
		score += 5.0
	}

	return score
}
