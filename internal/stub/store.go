package stub

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-slides-client/internal/models"
)

type account struct {
	user         models.User
	passwordHash string
}

type chunk struct {
	id      uint
	docID   uint
	userID  uint
	content string
}

// Store - сущности API в памяти процесса. Между запусками ничего не сохраняется.
type Store struct {
	mu sync.RWMutex

	nextID uint
	users  map[string]*account
	byID   map[uint]*account
	docs   map[uint]*models.Document
	chunks []chunk
	decks  map[uint]*models.PPTRecord
	pdfs   map[uint][]byte

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]*account),
		byID:  make(map[uint]*account),
		docs:  make(map[uint]*models.Document),
		decks: make(map[uint]*models.PPTRecord),
		pdfs:  make(map[uint][]byte),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// CreateUser регистрирует пользователя с bcrypt-хэшем пароля.
func (s *Store) CreateUser(username, email, password string) (models.User, error) {
	const op = "stub.Store.CreateUser"

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, fmt.Errorf("%s: username and password are required: %w", op, ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return models.User{}, fmt.Errorf("%s: username %q: %w", op, username, ErrAlreadyExists)
	}

	now := s.now()
	acc := &account{
		user: models.User{
			ID:        s.id(),
			Username:  username,
			Email:     strings.ToLower(strings.TrimSpace(email)),
			CreatedAt: now,
			UpdatedAt: now,
		},
		passwordHash: string(hash),
	}

	s.users[username] = acc
	s.byID[acc.user.ID] = acc

	return acc.user, nil
}

// Authenticate проверяет пароль. Неизвестный пользователь и неверный пароль
// неразличимы снаружи.
func (s *Store) Authenticate(username, password string) (models.User, error) {
	s.mu.RLock()
	acc, ok := s.users[strings.TrimSpace(username)]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return acc.user, nil
}

func (s *Store) User(id uint) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.byID[id]
	if !ok {
		return models.User{}, ErrUnauthenticated
	}

	return acc.user, nil
}

// AddDocument сохраняет документ и режет текст на фрагменты по абзацам.
func (s *Store) AddDocument(userID uint, filename string, content []byte) models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	doc := &models.Document{
		ID:        s.id(),
		UserID:    userID,
		Filename:  filename,
		FileType:  fileType(filename),
		FileSize:  int64(len(content)),
		FilePath:  fmt.Sprintf("uploads/%d/%s", userID, filename),
		Status:    models.DocumentCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, part := range strings.Split(string(content), "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		s.chunks = append(s.chunks, chunk{id: s.id(), docID: doc.ID, userID: userID, content: part})
		doc.ChunkCount++
	}

	s.docs[doc.ID] = doc

	return *doc
}

func fileType(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i < len(name)-1 {
		return strings.ToLower(name[i+1:])
	}

	return "txt"
}

func (s *Store) Documents(userID uint) []models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Document, 0)
	for _, d := range s.docs {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return out
}

// Document: чужой документ - Forbidden, отсутствующий - NotFound.
func (s *Store) Document(userID, id uint) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok {
		return models.Document{}, ErrNotFound
	}

	if d.UserID != userID {
		return models.Document{}, ErrForbidden
	}

	return *d, nil
}

func (s *Store) DeleteDocument(userID, id uint) error {
	if _, err := s.Document(userID, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, id)

	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.docID != id {
			kept = append(kept, c)
		}
	}
	s.chunks = kept

	return nil
}

// Search - наивный поиск: доля слов запроса, встретившихся во фрагменте.
func (s *Store) Search(userID uint, query string, topK int) []models.SearchResult {
	words := strings.Fields(strings.ToLower(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SearchResult, 0)
	if len(words) == 0 {
		return out
	}

	for _, c := range s.chunks {
		if c.userID != userID {
			continue
		}

		text := strings.ToLower(c.content)
		hits := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				hits++
			}
		}

		if hits == 0 {
			continue
		}

		out = append(out, models.SearchResult{
			ChunkID:    c.id,
			DocumentID: c.docID,
			Content:    c.content,
			Score:      float32(hits) / float32(len(words)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}

	return out
}

// AddDeck сохраняет готовую презентацию вместе с PDF.
func (s *Store) AddDeck(rec models.PPTRecord, pdf []byte) models.PPTRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec.ID = s.id()
	rec.CreatedAt, rec.UpdatedAt = now, now
	rec.PDFPath = fmt.Sprintf("output/%d/deck-%d.pdf", rec.UserID, rec.ID)

	s.decks[rec.ID] = &rec
	if pdf != nil {
		s.pdfs[rec.ID] = pdf
	}

	return rec
}

func (s *Store) Decks(userID uint) []models.PPTRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PPTRecord, 0)
	for _, d := range s.decks {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return out
}

func (s *Store) Deck(userID, id uint) (models.PPTRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.decks[id]
	if !ok {
		return models.PPTRecord{}, ErrNotFound
	}

	if d.UserID != userID {
		return models.PPTRecord{}, ErrForbidden
	}

	return *d, nil
}

func (s *Store) DeleteDeck(userID, id uint) error {
	if _, err := s.Deck(userID, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.decks, id)
	delete(s.pdfs, id)

	return nil
}

// PDF отдаёт бинарник готовой презентации.
func (s *Store) PDF(userID, id uint) ([]byte, error) {
	d, err := s.Deck(userID, id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pdf, ok := s.pdfs[id]
	if d.Status != models.PPTCompleted || !ok {
		return nil, ErrNotReady
	}

	return pdf, nil
}
