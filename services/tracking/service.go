package tracking

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"influencer-connect/pkg/config"
	"influencer-connect/pkg/errutil"
	"influencer-connect/pkg/rediskey"
	"influencer-connect/pkg/sequence"
	"influencer-connect/services/campaign"
	"influencer-connect/services/creator"

	"github.com/bwmarrin/snowflake"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// commissionRate is the creator's cut of an attributed sale.
	commissionRate = 0.10

	codeSuffixLen      = 4
	codeMaxRetries     = 10
	codeCacheTTL       = 10 * time.Minute
	codePrefixMaxChars = 8
)

// Service issues tracking codes and records attribution events.
type Service struct {
	db     *gorm.DB
	repo   Repository
	rdb    *goredis.Client
	seq    sequence.Generator
	node   *snowflake.Node
	logger *zap.Logger

	baseURL string
}

// ServiceParams defines dependencies for Service construction.
type ServiceParams struct {
	fx.In

	DB         *gorm.DB
	Repository Repository
	Redis      *goredis.Client `optional:"true"`
	Sequence   sequence.Generator
	Node       *snowflake.Node
	Config     *config.Config
	Logger     *zap.Logger
}

// NewService constructs a new Service instance.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:      p.DB,
		repo:    p.Repository,
		rdb:     p.Redis,
		seq:     p.Sequence,
		node:    p.Node,
		logger:  logger,
		baseURL: p.Config.BaseURL,
	}
}

// GenerateCodeRequest is the payload for issuing a tracking code.
type GenerateCodeRequest struct {
	CampaignID      string  `json:"campaign_id"`
	CreatorID       string  `json:"creator_id"`
	DiscountPercent float64 `json:"discount_percent"`
}

// GenerateCode returns the creator's code for a campaign, creating one on
// first call. Issuing is idempotent per (campaign, creator).
func (s *Service) GenerateCode(ctx context.Context, req GenerateCodeRequest) (*Code, error) {
	if req.CampaignID == "" || req.CreatorID == "" {
		return nil, errutil.ValidationFailed("campaign_id and creator_id are required")
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return nil, errutil.ValidationFailed("discount_percent must be between 0 and 100")
	}

	existing, err := s.repo.GetCodeByPair(ctx, req.CampaignID, req.CreatorID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&campaign.Campaign{}).
		Where("campaign_id = ?", req.CampaignID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errutil.NotFound("campaign not found")
	}

	var owner creator.Creator
	err = s.db.WithContext(ctx).Where("creator_id = ?", req.CreatorID).First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("creator not found")
	}
	if err != nil {
		return nil, err
	}

	value, err := s.uniqueCodeValue(ctx, owner.Handle)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	code := &Code{
		CodeID:          s.node.Generate().String(),
		CampaignID:      req.CampaignID,
		CreatorID:       req.CreatorID,
		Code:            value,
		DiscountPercent: req.DiscountPercent,
		TrackingURL:     fmt.Sprintf("%s/r/%s", s.baseURL, value),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateCode(ctx, code); err != nil {
		return nil, err
	}

	s.logger.Info("tracking code issued",
		zap.String("code", code.Code),
		zap.String("campaign_id", req.CampaignID),
		zap.String("creator_id", req.CreatorID),
	)
	return code, nil
}

// uniqueCodeValue builds a handle-prefixed code, retrying on collisions.
func (s *Service) uniqueCodeValue(ctx context.Context, handle string) (string, error) {
	prefix := codePrefix(handle)
	for i := 0; i < codeMaxRetries; i++ {
		suffix, err := randomSuffix(codeSuffixLen)
		if err != nil {
			return "", err
		}
		candidate := prefix + "-" + suffix

		exists, err := s.repo.CodeValueExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errutil.Conflict("could not generate a unique tracking code")
}

// codePrefix keeps the uppercase alphanumeric part of the handle.
func codePrefix(handle string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(handle) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= codePrefixMaxChars {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "CREATOR"
	}
	return b.String()
}

func randomSuffix(n int) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		b[i] = chars[num.Int64()]
	}
	return string(b), nil
}

// TrackRequest is the public event ingestion payload.
type TrackRequest struct {
	Code      string         `json:"code"`
	EventType EventType      `json:"event_type"`
	Amount    float64        `json:"amount"`
	Metadata  map[string]any `json:"metadata"`
}

// RequestMeta carries transport-level attributes of the event.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	Channel   string
}

// Track records a click, conversion or refund. Conversions also produce a
// sales event carrying the creator commission.
func (s *Service) Track(ctx context.Context, req TrackRequest, meta RequestMeta) (*Event, error) {
	if req.Code == "" {
		return nil, errutil.ValidationFailed("code is required")
	}
	if !req.EventType.Valid() {
		return nil, errutil.ValidationFailed("event_type must be click, conversion or refund")
	}
	if req.EventType != EventClick && req.Amount < 0 {
		return nil, errutil.ValidationFailed("amount must not be negative")
	}

	code, err := s.resolveCode(ctx, strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil {
		return nil, err
	}
	if !code.IsActive {
		return nil, errutil.UnprocessableEntity("tracking code is no longer active")
	}

	now := time.Now().UTC()
	event := &Event{
		EventID:        s.node.Generate().String(),
		TrackingCodeID: code.CodeID,
		EventType:      req.EventType,
		Amount:         req.Amount,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		Channel:        meta.Channel,
		CreatedAt:      now,
	}
	if len(req.Metadata) > 0 {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, errutil.BadRequest("metadata is not serializable", errutil.WithErr(err))
		}
		event.Metadata = datatypes.JSON(raw)
	}

	var sale *SalesEvent
	if req.EventType == EventConversion {
		reference, err := s.seq.NextSaleCode(ctx, code.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("generate sale code: %w", err)
		}
		sale = &SalesEvent{
			SaleID:           s.node.Generate().String(),
			TrackingCodeID:   code.CodeID,
			CampaignID:       code.CampaignID,
			CreatorID:        code.CreatorID,
			OrderID:          metaString(req.Metadata, "order_id"),
			ProductName:      metaString(req.Metadata, "product_name"),
			SaleAmount:       req.Amount,
			CommissionAmount: req.Amount * commissionRate,
			CustomerEmail:    metaString(req.Metadata, "customer_email"),
			ReferenceCode:    reference,
			CreatedAt:        now,
		}
	}

	if err := s.repo.RecordEvent(ctx, event, sale); err != nil {
		return nil, err
	}

	eventsTotal.WithLabelValues(string(req.EventType), meta.Channel).Inc()
	if req.EventType == EventConversion {
		attributedRevenue.WithLabelValues(meta.Channel).Add(req.Amount)
	}
	return event, nil
}

// resolveCode looks the code up in redis first, falling back to the
// database. Aggregates on the cached copy may be stale; Track only relies on
// the identity fields.
func (s *Service) resolveCode(ctx context.Context, value string) (*Code, error) {
	key := rediskey.BuildTrackingCodeKey(value)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			var code Code
			if err := json.Unmarshal([]byte(cached), &code); err == nil {
				return &code, nil
			}
		}
	}

	code, err := s.repo.GetCodeByValue(ctx, value)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("tracking code not found")
	}
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(code); err == nil {
			if err := s.rdb.Set(ctx, key, raw, codeCacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache tracking code", zap.Error(err))
			}
		}
	}
	return code, nil
}

// Stats returns the aggregate performance of a code.
func (s *Service) Stats(ctx context.Context, value string) (*Code, error) {
	code, err := s.repo.GetCodeByValue(ctx, strings.ToUpper(strings.TrimSpace(value)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("tracking code not found")
	}
	if err != nil {
		return nil, err
	}
	return code, nil
}

func metaString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
