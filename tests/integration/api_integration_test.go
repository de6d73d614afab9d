//go:build integration

package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-mailfeed/internal/api"
	"github.com/welldanyogia/webrana-mailfeed/internal/models"
	"github.com/welldanyogia/webrana-mailfeed/internal/pubsub"
	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
	"github.com/welldanyogia/webrana-mailfeed/internal/services"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAPIKey = "integration-test-api-key-32-characters"

// APIIntegrationTestSuite tests the full HTTP stack over real PostgreSQL
type APIIntegrationTestSuite struct {
	suite.Suite
	terminate func()
	db        *gorm.DB
	registry  *pubsub.Registry
	bus       *pubsub.LocalBus
	server    *httptest.Server
	testUser  *models.User
}

// SetupSuite starts PostgreSQL and the full router
func (s *APIIntegrationTestSuite) SetupSuite() {
	dsn, terminate := startPostgres(s.T(), "mailfeed_api_test")
	s.terminate = terminate

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)
	s.db = db

	err = db.AutoMigrate(&models.User{}, &models.Mailbox{}, &models.Message{},
		&models.JournalEntry{}, &models.Setting{}, &models.Filter{})
	require.NoError(s.T(), err)

	s.registry = pubsub.NewRegistryWithWindows(10*time.Millisecond, 100*time.Millisecond, nil)
	s.bus = pubsub.NewLocalBus(s.registry, nil)
	go s.bus.Run()

	notifier := services.NewNotifier(s.bus, nil)
	manager := services.NewMailboxManager(
		repository.NewMailboxRepository(db),
		repository.NewMessageRepository(db),
		repository.NewJournalRepository(db),
		repository.NewFilterRepository(db),
		repository.NewSettingsRepository(db),
		repository.NewUserRepository(db),
		notifier,
		services.MailboxManagerConfig{MaxPathDepth: 16, MaxSegmentLength: 200},
		nil,
	)

	router := api.NewRouter(&api.RouterConfig{
		DB:              db,
		Registry:        s.registry,
		Manager:         manager,
		StreamKeepAlive: time.Hour,
		APIKey:          testAPIKey,
		EnableAuth:      true,
	})
	s.server = httptest.NewServer(router)
}

// TearDownSuite stops the server and the PostgreSQL container
func (s *APIIntegrationTestSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	s.bus.Close()
	s.registry.Close()
	if s.terminate != nil {
		s.terminate()
	}
}

// SetupTest cleans up data before each test
func (s *APIIntegrationTestSuite) SetupTest() {
	s.db.Exec("TRUNCATE TABLE journal, filters, settings, messages, mailboxes, users RESTART IDENTITY CASCADE")

	s.testUser = &models.User{Username: "alice", Address: "alice@example.com"}
	require.NoError(s.T(), s.db.Create(s.testUser).Error)
}

// TestAPIIntegrationTestSuite runs the test suite
func TestAPIIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(APIIntegrationTestSuite))
}

func (s *APIIntegrationTestSuite) request(method, path string, body interface{}) *http.Response {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reqBody)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	resp, err := s.server.Client().Do(req)
	require.NoError(s.T(), err)
	return resp
}

func (s *APIIntegrationTestSuite) createMailbox(path string) uint {
	resp := s.request(http.MethodPost,
		fmt.Sprintf("/api/users/%d/mailboxes", s.testUser.ID),
		map[string]interface{}{"path": path})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var envelope struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data.ID
}

func (s *APIIntegrationTestSuite) TestMailboxLifecycleEndToEnd() {
	// Create
	id := s.createMailbox("Archive")

	// The structural change is journaled
	var entries []models.JournalEntry
	require.NoError(s.T(), s.db.Where("user_id = ?", s.testUser.ID).Order("id").Find(&entries).Error)
	require.Len(s.T(), entries, 1)
	assert.Equal(s.T(), models.CommandCreate, entries[0].Command)

	// Rename through the update endpoint
	resp := s.request(http.MethodPut,
		fmt.Sprintf("/api/users/%d/mailboxes/%d", s.testUser.ID, id),
		map[string]interface{}{"path": "Archive/2026"})
	resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	// Delete
	resp = s.request(http.MethodDelete,
		fmt.Sprintf("/api/users/%d/mailboxes/%d", s.testUser.ID, id), nil)
	resp.Body.Close()
	require.Equal(s.T(), http.StatusNoContent, resp.StatusCode)

	require.NoError(s.T(), s.db.Where("user_id = ?", s.testUser.ID).Order("id").Find(&entries).Error)
	require.Len(s.T(), entries, 3)
	assert.Equal(s.T(), models.CommandRename, entries[1].Command)
	assert.Equal(s.T(), models.CommandDelete, entries[2].Command)

	var count int64
	s.db.Model(&models.Mailbox{}).Where("id = ?", id).Count(&count)
	assert.Zero(s.T(), count)
}

func (s *APIIntegrationTestSuite) TestMailboxGuards() {
	// INBOX cannot be created through the API
	resp := s.request(http.MethodPost,
		fmt.Sprintf("/api/users/%d/mailboxes", s.testUser.ID),
		map[string]interface{}{"path": "INBOX"})
	resp.Body.Close()
	assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)

	// Duplicates conflict
	s.createMailbox("Archive")
	resp = s.request(http.MethodPost,
		fmt.Sprintf("/api/users/%d/mailboxes", s.testUser.ID),
		map[string]interface{}{"path": "Archive"})
	resp.Body.Close()
	assert.Equal(s.T(), http.StatusConflict, resp.StatusCode)
}

func (s *APIIntegrationTestSuite) TestListIncludesCounters() {
	id := s.createMailbox("Archive")
	require.NoError(s.T(), s.db.Create(&models.Message{
		MailboxID: id, UserID: s.testUser.ID, UID: 1, Unseen: true,
		SenderEmail: "a@b.c",
	}).Error)

	resp := s.request(http.MethodGet,
		fmt.Sprintf("/api/users/%d/mailboxes", s.testUser.ID), nil)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Mailboxes []struct {
				ID     uint  `json:"id"`
				Total  int64 `json:"total"`
				Unseen int64 `json:"unseen"`
			} `json:"mailboxes"`
		} `json:"data"`
	}
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&envelope))
	require.Len(s.T(), envelope.Data.Mailboxes, 1)
	assert.Equal(s.T(), int64(1), envelope.Data.Mailboxes[0].Total)
	assert.Equal(s.T(), int64(1), envelope.Data.Mailboxes[0].Unseen)
}

func (s *APIIntegrationTestSuite) TestUpdatesStreamReplaysFromCursor() {
	// Two structural changes before the client connects
	s.createMailbox("One")
	s.createMailbox("Two")

	var entries []models.JournalEntry
	require.NoError(s.T(), s.db.Where("user_id = ?", s.testUser.ID).Order("id").Find(&entries).Error)
	require.Len(s.T(), entries, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/users/%d/updates", s.server.URL, s.testUser.ID), nil)
	require.NoError(s.T(), err)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Last-Event-ID", fmt.Sprintf("%d", entries[0].ID))

	resp, err := s.server.Client().Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(s.T(), "text/event-stream", resp.Header.Get("Content-Type"))

	// Only the entry past the cursor is replayed
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		require.NoError(s.T(), err)
		if strings.HasPrefix(line, "data: ") {
			assert.Contains(s.T(), line, `"Two"`)
			assert.NotContains(s.T(), line, `"One"`)
			return
		}
	}
}

func (s *APIIntegrationTestSuite) TestUpdatesStreamSeesLiveChanges() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/users/%d/updates", s.server.URL, s.testUser.ID), nil)
	require.NoError(s.T(), err)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	resp, err := s.server.Client().Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	// Read the banner first so the stream is known to be registered
	reader := bufio.NewReader(resp.Body)
	banner, err := reader.ReadString('\n')
	require.NoError(s.T(), err)
	require.True(s.T(), strings.HasPrefix(banner, ": mailfeed"))

	s.createMailbox("Live")

	for {
		line, err := reader.ReadString('\n')
		require.NoError(s.T(), err, "stream closed before the CREATE event arrived")
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"CREATE"`) {
			assert.Contains(s.T(), line, `"Live"`)
			return
		}
	}
}
