package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"

	"coursepulse/internal/model"
	"coursepulse/internal/repository"
	"coursepulse/internal/util"
	"coursepulse/internal/websocket"
)

type SortMode string

const (
	SortNewest   SortMode = "newest"
	SortLikes    SortMode = "likes"
	SortMentions SortMode = "mentions"
)

// Redis channel carrying scope invalidation events between instances.
const threadInvalidateChannel = "thread:invalidate"

var ErrInvalidScope = errors.New("thread scope is incomplete")

// ThreadSnapshot is the viewer-neutral state of one comment thread: every
// comment in the scope with its replies and like count attached. Viewer
// specific data (liked flags, mention flags, sort) is layered on in View.
type ThreadSnapshot struct {
	Scope      model.ThreadScope `json:"scope"`
	Comments   []*model.Comment  `json:"comments"`
	Total      int64             `json:"total"`
	Generation uint64            `json:"generation"`
}

// CommentView is one comment as a specific viewer sees it.
type CommentView struct {
	*model.Comment
	LikedByViewer   bool `json:"liked_by_viewer"`
	ViewerMentioned bool `json:"viewer_mentioned"`
}

type ThreadView struct {
	Scope    model.ThreadScope `json:"scope"`
	Comments []CommentView     `json:"comments"`
	Total    int64             `json:"total"`
}

type Viewer struct {
	ID   string
	Name string
}

// ThreadService keeps one live snapshot per subscribed scope and pushes
// updates to subscribers. Mutations never touch the snapshot directly; they
// stage optimistic entries and trigger a rebuild, and the rebuilt snapshot
// reconciles or retires the staged entries.
type ThreadService interface {
	// Subscribe registers for snapshot pushes on a scope. The subscription
	// ends when ctx is cancelled; the returned channel is closed then.
	Subscribe(ctx context.Context, scope model.ThreadScope) (<-chan ThreadSnapshot, error)
	// Invalidate schedules a rebuild of the scope's snapshot and fans the
	// event out to other instances.
	Invalidate(scope model.ThreadScope)
	// StageComment front-inserts an already persisted comment into the
	// scope's snapshot ahead of the next rebuild.
	StageComment(comment *model.Comment)
	// StageEdit applies already persisted comment text to the scope's
	// snapshot ahead of the next rebuild.
	StageEdit(scope model.ThreadScope, commentID, text string)
	// StageReply appends an already persisted reply under its parent
	// comment in the scope's snapshot ahead of the next rebuild.
	StageReply(scope model.ThreadScope, reply *model.Reply)
	// StageRemoval hides a comment from the scope's snapshot ahead of the
	// next rebuild.
	StageRemoval(scope model.ThreadScope, commentID string)
	// View renders the current snapshot for one viewer with the given sort.
	View(scope model.ThreadScope, viewer Viewer, mode SortMode) (*ThreadView, error)
	// Start begins listening for cross-instance invalidation events.
	Start(ctx context.Context)
	SetWSHub(hub *websocket.Hub)
}

type threadState struct {
	mu         sync.Mutex
	generation uint64
	snapshot   []*model.Comment
	loaded     bool

	// Optimistic entries merged in front of the snapshot until a rebuild
	// observes them in the store.
	overlay    []*model.Comment
	tombstones map[string]bool

	// Staged text edits and replies by parent comment ID, applied over
	// snapshot and overlay entries until a rebuild observes them.
	edits        map[string]string
	extraReplies map[string][]model.Reply

	subscribers map[chan ThreadSnapshot]struct{}
}

type threadService struct {
	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
	directory   DirectoryService
	redis       *util.RedisClient
	wsHub       *websocket.Hub

	mu     sync.Mutex
	states map[string]*threadState
}

func NewThreadService(commentRepo repository.CommentRepository, likeRepo repository.LikeRepository, directory DirectoryService, redis *util.RedisClient) ThreadService {
	return &threadService{
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		directory:   directory,
		redis:       redis,
		states:      make(map[string]*threadState),
	}
}

func (s *threadService) SetWSHub(hub *websocket.Hub) {
	s.wsHub = hub
}

func (s *threadService) Start(ctx context.Context) {
	if s.redis == nil {
		return
	}
	s.redis.Subscribe(ctx, threadInvalidateChannel, func(payload []byte) {
		var scope model.ThreadScope
		if err := json.Unmarshal(payload, &scope); err != nil {
			log.Printf("Failed to decode thread invalidation event: %v", err)
			return
		}
		if st := s.stateIfPresent(scope); st != nil {
			go s.rebuild(scope, st)
		}
	})
}

func (s *threadService) state(scope model.ThreadScope) *threadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scope.Key()
	st, ok := s.states[key]
	if !ok {
		st = &threadState{
			tombstones:   make(map[string]bool),
			edits:        make(map[string]string),
			extraReplies: make(map[string][]model.Reply),
			subscribers:  make(map[chan ThreadSnapshot]struct{}),
		}
		s.states[key] = st
	}
	return st
}

func (s *threadService) stateIfPresent(scope model.ThreadScope) *threadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[scope.Key()]
}

func (s *threadService) Subscribe(ctx context.Context, scope model.ThreadScope) (<-chan ThreadSnapshot, error) {
	if !scope.Valid() {
		return nil, ErrInvalidScope
	}

	st := s.state(scope)
	ch := make(chan ThreadSnapshot, 1)

	st.mu.Lock()
	st.subscribers[ch] = struct{}{}
	st.mu.Unlock()

	go s.rebuild(scope, st)

	go func() {
		<-ctx.Done()
		st.mu.Lock()
		delete(st.subscribers, ch)
		st.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (s *threadService) Invalidate(scope model.ThreadScope) {
	if !scope.Valid() {
		return
	}
	st := s.state(scope)
	go s.rebuild(scope, st)

	if s.redis != nil {
		if err := s.redis.Publish(threadInvalidateChannel, scope); err != nil {
			log.Printf("Failed to publish thread invalidation for %s: %v", scope.Key(), err)
		}
	}
}

func (s *threadService) StageComment(comment *model.Comment) {
	scope := comment.Scope()
	if !scope.Valid() {
		return
	}
	st := s.state(scope)

	st.mu.Lock()
	st.overlay = append([]*model.Comment{comment}, st.overlay...)
	st.mu.Unlock()

	s.broadcast(scope, st)
}

func (s *threadService) StageEdit(scope model.ThreadScope, commentID, text string) {
	st := s.stateIfPresent(scope)
	if st == nil {
		return
	}

	st.mu.Lock()
	st.edits[commentID] = text
	st.mu.Unlock()

	s.broadcast(scope, st)
}

func (s *threadService) StageReply(scope model.ThreadScope, reply *model.Reply) {
	st := s.stateIfPresent(scope)
	if st == nil || reply == nil {
		return
	}

	st.mu.Lock()
	st.extraReplies[reply.CommentID] = append(st.extraReplies[reply.CommentID], *reply)
	st.mu.Unlock()

	s.broadcast(scope, st)
}

func (s *threadService) StageRemoval(scope model.ThreadScope, commentID string) {
	st := s.stateIfPresent(scope)
	if st == nil {
		return
	}

	st.mu.Lock()
	st.tombstones[commentID] = true
	st.mu.Unlock()

	s.broadcast(scope, st)
}

// rebuild loads the authoritative thread state for a scope. Reply lists and
// like counts are fetched concurrently per comment; a failed fetch degrades
// that one comment instead of failing the whole thread. A rebuild that was
// overtaken by a newer one discards its result.
func (s *threadService) rebuild(scope model.ThreadScope, st *threadState) {
	st.mu.Lock()
	st.generation++
	generation := st.generation
	st.mu.Unlock()

	comments, err := s.commentRepo.FindByScope(scope)
	if err != nil {
		log.Printf("Failed to load thread %s: %v", scope.Key(), err)
		return
	}

	var wg sync.WaitGroup
	for _, comment := range comments {
		wg.Add(1)
		go func(c *model.Comment) {
			defer wg.Done()

			count, err := s.likeRepo.CountByComment(c.ID)
			if err != nil {
				log.Printf("Failed to count likes for comment %s: %v", c.ID, err)
			} else {
				c.LikeCount = count
			}

			replies, err := s.commentRepo.FindRepliesByComment(c.ID)
			if err != nil {
				log.Printf("Failed to load replies for comment %s: %v", c.ID, err)
				c.Replies = []model.Reply{}
			} else {
				c.Replies = replies
			}
		}(comment)
	}
	wg.Wait()

	st.mu.Lock()
	if st.generation != generation {
		st.mu.Unlock()
		return
	}
	st.snapshot = comments
	st.loaded = true

	// Retire reconciled overlay entries, observed edits and replies, and
	// spent tombstones.
	authoritative := make(map[string]*model.Comment, len(comments))
	for _, c := range comments {
		authoritative[c.ID] = c
	}
	var remaining []*model.Comment
	for _, c := range st.overlay {
		if authoritative[c.ID] == nil {
			remaining = append(remaining, c)
		}
	}
	st.overlay = remaining
	for id, text := range st.edits {
		c := authoritative[id]
		if c == nil || c.Text == text {
			delete(st.edits, id)
		}
	}
	for id, staged := range st.extraReplies {
		c := authoritative[id]
		if c == nil {
			delete(st.extraReplies, id)
			continue
		}
		seen := make(map[string]bool, len(c.Replies))
		for _, r := range c.Replies {
			seen[r.ID] = true
		}
		var pending []model.Reply
		for _, r := range staged {
			if !seen[r.ID] {
				pending = append(pending, r)
			}
		}
		if len(pending) == 0 {
			delete(st.extraReplies, id)
		} else {
			st.extraReplies[id] = pending
		}
	}
	for id := range st.tombstones {
		if authoritative[id] == nil {
			delete(st.tombstones, id)
		}
	}
	st.mu.Unlock()

	s.broadcast(scope, st)
}

// merged returns the overlay-merged comment list, newest first, with
// staged edits and replies applied.
func (st *threadState) merged() ([]*model.Comment, int64) {
	out := make([]*model.Comment, 0, len(st.overlay)+len(st.snapshot))
	for _, c := range st.overlay {
		out = append(out, st.patched(c))
	}
	for _, c := range st.snapshot {
		if !st.tombstones[c.ID] {
			out = append(out, st.patched(c))
		}
	}
	return out, int64(len(out))
}

// patched applies staged edits and replies to a comment without
// mutating the stored entry.
func (st *threadState) patched(c *model.Comment) *model.Comment {
	text, edited := st.edits[c.ID]
	staged := st.extraReplies[c.ID]
	if !edited && len(staged) == 0 {
		return c
	}
	clone := *c
	if edited {
		clone.Text = text
		clone.Edited = true
	}
	if len(staged) > 0 {
		clone.Replies = append(append([]model.Reply{}, c.Replies...), staged...)
	}
	return &clone
}

func (s *threadService) broadcast(scope model.ThreadScope, st *threadState) {
	st.mu.Lock()
	comments, total := st.merged()
	snapshot := ThreadSnapshot{
		Scope:      scope,
		Comments:   comments,
		Total:      total,
		Generation: st.generation,
	}
	for ch := range st.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Slow subscriber keeps only the latest snapshot.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
	st.mu.Unlock()

	if s.wsHub != nil {
		s.wsHub.BroadcastToScope(scope.Key(), map[string]interface{}{
			"type": "thread_snapshot",
			"data": snapshot,
		})
	}
}

func (s *threadService) View(scope model.ThreadScope, viewer Viewer, mode SortMode) (*ThreadView, error) {
	if !scope.Valid() {
		return nil, ErrInvalidScope
	}

	st := s.state(scope)

	st.mu.Lock()
	loaded := st.loaded
	st.mu.Unlock()
	if !loaded {
		s.rebuild(scope, st)
	}

	st.mu.Lock()
	comments, total := st.merged()
	st.mu.Unlock()

	liked := map[string]bool{}
	if viewer.ID != "" && len(comments) > 0 {
		ids := make([]string, len(comments))
		for i, c := range comments {
			ids[i] = c.ID
		}
		m, err := s.likeRepo.FindLikedCommentIDs(viewer.ID, ids)
		if err != nil {
			log.Printf("Failed to load viewer likes for %s: %v", scope.Key(), err)
		} else {
			liked = m
		}
	}

	views := make([]CommentView, len(comments))
	for i, c := range comments {
		mentioned := s.directory.MentionsName(c.Text, viewer.Name)
		if !mentioned {
			for _, r := range c.Replies {
				if s.directory.MentionsName(r.Text, viewer.Name) {
					mentioned = true
					break
				}
			}
		}
		views[i] = CommentView{
			Comment:         c,
			LikedByViewer:   liked[c.ID],
			ViewerMentioned: mentioned,
		}
	}

	switch mode {
	case SortLikes:
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].LikeCount > views[j].LikeCount
		})
	case SortMentions:
		filtered := views[:0]
		for _, v := range views {
			if v.ViewerMentioned {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}

	return &ThreadView{Scope: scope, Comments: views, Total: total}, nil
}
