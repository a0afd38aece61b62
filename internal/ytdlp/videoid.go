package ytdlp

import (
	"net/url"
	"strings"
)

// VideoIDFromURL extracts a YouTube video id from the common URL shapes
// without contacting the extractor. It recognizes watch?v=, youtu.be/,
// /shorts/, /embed/, /live/ and /v/ links.
func VideoIDFromURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch host {
	case "youtu.be":
		id = segments[0]
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		if len(segments) == 2 {
			switch segments[0] {
			case "shorts", "embed", "live", "v":
				id = segments[1]
			}
		}
	}

	if !isVideoID(id) {
		return "", false
	}
	return id, true
}

func isVideoID(s string) bool {
	if len(s) != 11 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
