package service

import (
	"log"
	"regexp"
	"strings"
	"sync"

	"coursepulse/internal/repository"
)

// Mention markers. Users type "$name" in the composer; the stored display
// form is "@name".
const (
	MentionTriggerSigil = "$"
	MentionDisplaySigil = "@"
)

// A mention token is the display sigil followed by a non-whitespace run.
var mentionTokenPattern = regexp.MustCompile(`@[^\s]+`)

type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// DirectoryService holds the participant directory: the full registered-user
// set, loaded wholesale once per view session. It backs mention autocomplete
// and mention detection. The directory does not update reactively; Reload
// refreshes it.
type DirectoryService interface {
	Participants() []Participant
	Reload()
	// Suggest returns participants whose name starts with the given prefix,
	// for the composer's autocomplete dropdown.
	Suggest(prefix string, limit int) []Participant
	// ResolveMentionTokens rewrites "$name" trigger tokens to the "@name"
	// display form for every name present in the directory. Unknown tokens
	// are left untouched.
	ResolveMentionTokens(text string) string
	// MentionedIDs returns the IDs of every participant whose name appears
	// as a mention token in the text.
	MentionedIDs(text string) []string
	// IsMentioned reports whether the text mentions the participant with
	// the given ID.
	IsMentioned(text, participantID string) bool
	// MentionsName reports whether the text contains a mention token for
	// the given display name, regardless of directory membership.
	MentionsName(text, name string) bool
}

type directoryService struct {
	userRepo repository.UserRepository

	mu           sync.RWMutex
	participants []Participant
	byName       map[string]Participant
}

func NewDirectoryService(userRepo repository.UserRepository) DirectoryService {
	s := &directoryService{
		userRepo: userRepo,
		byName:   make(map[string]Participant),
	}
	s.Reload()
	return s
}

// Reload fetches the full user set. A load failure is logged and leaves the
// directory empty; mentions then degrade to plain text.
func (s *directoryService) Reload() {
	users, err := s.userRepo.FindAll()
	if err != nil {
		log.Printf("Failed to load participant directory: %v", err)
		s.mu.Lock()
		s.participants = nil
		s.byName = make(map[string]Participant)
		s.mu.Unlock()
		return
	}

	participants := make([]Participant, 0, len(users))
	byName := make(map[string]Participant, len(users))
	for _, u := range users {
		p := Participant{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
		participants = append(participants, p)
		byName[u.Name] = p
	}

	s.mu.Lock()
	s.participants = participants
	s.byName = byName
	s.mu.Unlock()
}

func (s *directoryService) Participants() []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

func (s *directoryService) Suggest(prefix string, limit int) []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Participant
	lower := strings.ToLower(prefix)
	for _, p := range s.participants {
		if strings.HasPrefix(strings.ToLower(p.Name), lower) {
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

func (s *directoryService) ResolveMentionTokens(text string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parts := strings.Split(text, " ")
	for i, part := range parts {
		if !strings.HasPrefix(part, MentionTriggerSigil) {
			continue
		}
		name := strings.TrimPrefix(part, MentionTriggerSigil)
		if _, ok := s.byName[name]; ok {
			parts[i] = MentionDisplaySigil + name
		}
	}
	return strings.Join(parts, " ")
}

func (s *directoryService) MentionedIDs(text string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	seen := make(map[string]bool)
	for _, token := range mentionTokenPattern.FindAllString(text, -1) {
		name := strings.TrimPrefix(token, MentionDisplaySigil)
		if p, ok := s.byName[name]; ok && !seen[p.ID] {
			seen[p.ID] = true
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (s *directoryService) IsMentioned(text, participantID string) bool {
	for _, id := range s.MentionedIDs(text) {
		if id == participantID {
			return true
		}
	}
	return false
}

func (s *directoryService) MentionsName(text, name string) bool {
	if name == "" {
		return false
	}
	for _, token := range mentionTokenPattern.FindAllString(text, -1) {
		if token == MentionDisplaySigil+name {
			return true
		}
	}
	return false
}
