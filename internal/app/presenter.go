package app

import (
	"strings"

	"coursepulse/internal/model"
	"coursepulse/internal/service"
)

const (
	// Comments longer than this many lines render collapsed with a toggle.
	collapseLineThreshold = 3

	// Threads reveal this many comments at a time.
	threadPageSize = 7

	readMoreLabel = "Read More"
	showLessLabel = "Show Less"
)

// TextSegment is one run of comment text. Mention segments carry the
// mentioned display name so the client can highlight them.
type TextSegment struct {
	Text    string `json:"text"`
	Mention bool   `json:"mention,omitempty"`
}

// DisplayComment is one comment prepared for rendering: text split into
// mention segments, long bodies pre-collapsed, and per-viewer flags resolved.
type DisplayComment struct {
	ID              string         `json:"id"`
	AuthorName      string         `json:"author_name"`
	AvatarURL       string         `json:"avatar_url"`
	Text            string         `json:"text"`
	Segments        []TextSegment  `json:"segments"`
	Collapsible     bool           `json:"collapsible"`
	CollapsedText   string         `json:"collapsed_text,omitempty"`
	ExpandLabel     string         `json:"expand_label,omitempty"`
	CollapseLabel   string         `json:"collapse_label,omitempty"`
	Edited          bool           `json:"edited"`
	LikeCount       int64          `json:"like_count"`
	LikedByViewer   bool           `json:"liked_by_viewer"`
	ViewerMentioned bool           `json:"viewer_mentioned"`
	IsOwn           bool           `json:"is_own"`
	CreatedAt       int64          `json:"created_at"`
	Replies         []DisplayReply `json:"replies"`
}

type DisplayReply struct {
	ID         string `json:"id"`
	AuthorName string `json:"author_name"`
	AvatarURL  string `json:"avatar_url"`
	Text       string `json:"text"`
	FromAdmin  bool   `json:"from_admin"`
	Edited     bool   `json:"edited"`
	IsOwn      bool   `json:"is_own"`
	CreatedAt  int64  `json:"created_at"`
}

// DisplayThread is a page of a thread view. Comments beyond the visible
// window are withheld; HasMore tells the client another page exists.
type DisplayThread struct {
	Comments []DisplayComment `json:"comments"`
	Total    int64            `json:"total"`
	Visible  int              `json:"visible"`
	HasMore  bool             `json:"has_more"`
}

// presentThread windows the view to the requested visible count, rounded up
// to a page multiple, and renders each comment.
func presentThread(view *service.ThreadView, viewerID string, visible int) *DisplayThread {
	if visible < threadPageSize {
		visible = threadPageSize
	}
	if rem := visible % threadPageSize; rem != 0 {
		visible += threadPageSize - rem
	}

	shown := view.Comments
	if len(shown) > visible {
		shown = shown[:visible]
	}

	comments := make([]DisplayComment, len(shown))
	for i, cv := range shown {
		comments[i] = presentComment(cv, viewerID)
	}

	return &DisplayThread{
		Comments: comments,
		Total:    view.Total,
		Visible:  len(comments),
		HasMore:  len(view.Comments) > len(comments),
	}
}

func presentComment(cv service.CommentView, viewerID string) DisplayComment {
	dc := DisplayComment{
		ID:              cv.ID,
		AuthorName:      cv.AuthorName,
		AvatarURL:       cv.AvatarURL,
		Text:            cv.Text,
		Segments:        segmentText(cv.Text),
		Edited:          cv.Edited,
		LikeCount:       cv.LikeCount,
		LikedByViewer:   cv.LikedByViewer,
		ViewerMentioned: cv.ViewerMentioned,
		IsOwn:           cv.AuthorID == viewerID,
		CreatedAt:       cv.CreatedAt.Unix(),
	}

	if lines := strings.Split(cv.Text, "\n"); len(lines) > collapseLineThreshold {
		dc.Collapsible = true
		dc.CollapsedText = strings.Join(lines[:collapseLineThreshold], "\n")
		dc.ExpandLabel = readMoreLabel
		dc.CollapseLabel = showLessLabel
	}

	dc.Replies = make([]DisplayReply, len(cv.Replies))
	for i, r := range cv.Replies {
		dc.Replies[i] = DisplayReply{
			ID:         r.ID,
			AuthorName: r.AuthorName,
			AvatarURL:  r.AvatarURL,
			Text:       r.Text,
			FromAdmin:  r.Role == model.RoleAdmin,
			Edited:     r.Edited,
			IsOwn:      r.AuthorID == viewerID,
			CreatedAt:  r.CreatedAt.Unix(),
		}
	}

	return dc
}

// segmentText splits comment text into plain and mention segments. A mention
// segment is a word starting with the mention sigil; whitespace stays
// attached to the surrounding plain segments.
func segmentText(text string) []TextSegment {
	var segments []TextSegment
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			segments = append(segments, TextSegment{Text: plain.String()})
			plain.Reset()
		}
	}

	words := strings.Split(text, " ")
	for i, word := range words {
		if strings.HasPrefix(word, service.MentionDisplaySigil) && len(word) > 1 {
			flush()
			segments = append(segments, TextSegment{Text: word, Mention: true})
		} else {
			plain.WriteString(word)
		}
		if i < len(words)-1 {
			plain.WriteString(" ")
		}
	}
	flush()

	return segments
}
