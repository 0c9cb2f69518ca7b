package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quiz-progression-system/models"

	"github.com/gosimple/unidecode"
	"gorm.io/gorm"
)

// remoteProfile matches the JSON rows served by the gateway's profile feed.
type remoteProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	UpdatedAt time.Time `json:"updated_at"`
}

type profileChangesResponse struct {
	Profiles []remoteProfile `json:"profiles"`
}

// ProfileSyncWorker pulls display-name and avatar changes from the Telegram
// gateway so the leaderboard and admin views stay current without waiting
// for the player's next request.
type ProfileSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, gatewayBaseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      gatewayBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Profile Sync Worker (gateway → players)…")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logTime := time.Now().UTC()
			if err := w.syncBatch(ctx, lastSyncTime); err != nil {
				log.Printf("❌ Profile sync batch failed: %v", err)
				// Keep the old window so the failed batch is retried next tick.
				continue
			}
			lastSyncTime = logTime
		case <-ctx.Done():
			log.Println("⏹️ Profile Sync Worker stopped")
			return
		}
	}
}

func (w *ProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid gateway base URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpointURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call gateway: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var response profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if len(response.Profiles) == 0 {
		return nil
	}

	log.Printf("📥 Processing %d profile change(s) from gateway…", len(response.Profiles))

	var updated, errorCount int
	for _, remote := range response.Profiles {
		// Only mirror into players we already track; profile changes for
		// accounts that never opened the game are not our concern.
		var player models.Player
		if err := w.db.WithContext(ctx).Where("id = ?", remote.ID).First(&player).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				errorCount++
				log.Printf("⚠️ Failed to load player %s for profile sync: %v", remote.ID, err)
			}
			continue
		}

		updates := map[string]any{}
		if remote.Name != "" && remote.Name != player.Name {
			updates["name"] = remote.Name
			updates["search_key"] = strings.ToLower(unidecode.Unidecode(remote.Name))
		}
		if remote.Avatar != "" && remote.Avatar != player.Avatar {
			updates["avatar"] = remote.Avatar
		}
		if len(updates) == 0 {
			continue
		}

		if err := w.db.WithContext(ctx).Model(&player).Updates(updates).Error; err != nil {
			errorCount++
			log.Printf("⚠️ Failed to update profile for player %s: %v", remote.ID, err)
			continue
		}
		updated++
	}

	log.Printf("✅ Profile sync done (%d updated, %d errors).", updated, errorCount)
	return nil
}
