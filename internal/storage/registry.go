package storage

import (
	"log"
	"strconv"
	"sync"
)

// Group is a chat enrolled for photo reports.
type Group struct {
	ChatID int64
	Name   string
}

// Registry tracks which chats are enrolled, persisted as a JSON object
// mapping chat ID to display name. The file is human-inspectable and
// tolerates being hand-edited down to "{}".
type Registry struct {
	mu     sync.Mutex
	path   string
	groups map[int64]string
}

// NewRegistry loads the registry from path, creating an empty file if
// none exists. A corrupt file yields an empty registry (the original is
// preserved alongside).
func NewRegistry(path string) (*Registry, error) {
	raw := make(map[string]string)
	if err := loadJSON(path, &raw); err != nil {
		return nil, err
	}

	groups := make(map[int64]string, len(raw))
	for key, name := range raw {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.Printf("[Registry] Skipping entry with bad chat ID %q: %v", key, err)
			continue
		}
		groups[chatID] = name
	}
	return &Registry{path: path, groups: groups}, nil
}

// Register upserts a group. It is a no-op when the chat is already
// present under the same name; a changed name is persisted.
func (r *Registry) Register(chatID int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.groups[chatID]; ok && current == name {
		return nil
	}
	r.groups[chatID] = name
	if err := r.flushLocked(); err != nil {
		return err
	}
	log.Printf("[Registry Chat:%d] Registered as %q", chatID, name)
	return nil
}

// Unregister removes the group. Deleting its archived history is the
// caller's concern (see Archive.DeleteGroup); the cascade is wired in
// the chat-membership handler.
func (r *Registry) Unregister(chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.groups[chatID]; !ok {
		return nil
	}
	delete(r.groups, chatID)
	if err := r.flushLocked(); err != nil {
		return err
	}
	log.Printf("[Registry Chat:%d] Unregistered", chatID)
	return nil
}

// Contains reports whether the chat is enrolled.
func (r *Registry) Contains(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.groups[chatID]
	return ok
}

// ListAll returns every enrolled group. Order is unspecified; admin
// views iterate the full registry so chats without a report still show
// up as missing rather than being silently omitted.
func (r *Registry) ListAll() []Group {
	r.mu.Lock()
	defer r.mu.Unlock()

	groups := make([]Group, 0, len(r.groups))
	for chatID, name := range r.groups {
		groups = append(groups, Group{ChatID: chatID, Name: name})
	}
	return groups
}

func (r *Registry) flushLocked() error {
	raw := make(map[string]string, len(r.groups))
	for chatID, name := range r.groups {
		raw[strconv.FormatInt(chatID, 10)] = name
	}
	return saveJSON(r.path, raw)
}
