package ingest

import (
	"fmt"
	"strings"

	"animebase/pkg/common"
)

// BuildScenes groups storyboard frames into scene scripts. Frames must be
// ordered by scene then frame number; each subtitle-bearing frame becomes one
// "role:subtitle" line of its scene's script. Frames without a subtitle carry
// no dialogue and are skipped.
func BuildScenes(storyboards []common.Storyboard) []common.Scene {
	var scenes []common.Scene
	var lines []string
	current := -1

	flush := func() {
		if current < 0 || len(lines) == 0 {
			return
		}
		scenes = append(scenes, common.Scene{
			ID:     current,
			Script: strings.Join(lines, "\n"),
		})
	}

	for _, sb := range storyboards {
		if sb.Scene != current {
			flush()
			current = sb.Scene
			lines = lines[:0]
		}
		subtitle := strings.TrimSpace(sb.Subtitle)
		if subtitle == "" {
			continue
		}
		role := strings.TrimSpace(sb.Role)
		if role == "" {
			role = "narration"
		}
		lines = append(lines, fmt.Sprintf("%s:%s", role, subtitle))
	}
	flush()

	return scenes
}
