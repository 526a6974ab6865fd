package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/newsnest/nest-agent/internal/domain"
	"github.com/newsnest/nest-agent/internal/observability"
)

const (
	collSessions    = "chat_sessions"
	collUsers       = "users"
	collPreferences = "user_preferences"
)

// Store is the MongoDB document store: chat sessions, users, and user
// preferences, each keyed by the owning identity.
type Store struct {
	db *mongo.Database
}

// NewStore connects to MongoDB and returns a store bound to dbName. Index
// creation is attempted once here and is tolerant of failure: transient
// connectivity loss at startup must not crash the service.
func NewStore(ctx context.Context, connectionString, dbName string) (*Store, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("mongodb connection string is required")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("creating mongo client: %w", err)
	}

	s := &Store{db: client.Database(dbName)}
	s.ensureIndexes(ctx)
	return s, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) {
	log := observability.Logger()

	idxCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	specs := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{collUsers, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		}},
		{collPreferences, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{collSessions, []mongo.IndexModel{
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		}},
	}

	for _, spec := range specs {
		if _, err := s.db.Collection(spec.coll).Indexes().CreateMany(idxCtx, spec.models); err != nil {
			log.Warn("mongo index setup failed", "collection", spec.coll, "error", err)
		}
	}
}

type sessionDoc struct {
	ID               string                    `bson:"_id"`
	OwnerID          string                    `bson:"owner_id"`
	Title            string                    `bson:"title"`
	PersonasInvolved []string                  `bson:"personas_involved"`
	Messages         []domain.ConversationTurn `bson:"messages"`
	CreatedAt        time.Time                 `bson:"created_at"`
	UpdatedAt        time.Time                 `bson:"updated_at"`
}

type userDoc struct {
	Email     string    `bson:"email"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"created_at"`
}

type preferencesDoc struct {
	Email             string    `bson:"email"`
	ParrotName        string    `bson:"parrot_name"`
	Times             []string  `bson:"times"`
	Frequency         string    `bson:"frequency"`
	PushNotifications bool      `bson:"push_notifications"`
	EmailSummaries    bool      `bson:"email_summaries"`
	Topics            []string  `bson:"topics"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

func (s *Store) sessions() *mongo.Collection    { return s.db.Collection(collSessions) }
func (s *Store) users() *mongo.Collection       { return s.db.Collection(collUsers) }
func (s *Store) preferences() *mongo.Collection { return s.db.Collection(collPreferences) }

func toSessionDoc(session *domain.ChatSession) sessionDoc {
	personas := make([]string, 0, len(session.PersonasInvolved))
	for _, p := range session.PersonasInvolved {
		personas = append(personas, string(p))
	}
	return sessionDoc{
		ID:               session.ID,
		OwnerID:          session.OwnerID,
		Title:            session.Title,
		PersonasInvolved: personas,
		Messages:         session.Messages,
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
	}
}

func fromSessionDoc(doc sessionDoc) *domain.ChatSession {
	personas := make([]domain.PersonaID, 0, len(doc.PersonasInvolved))
	for _, p := range doc.PersonasInvolved {
		personas = append(personas, domain.PersonaID(p))
	}
	return &domain.ChatSession{
		ID:               doc.ID,
		OwnerID:          doc.OwnerID,
		Title:            doc.Title,
		PersonasInvolved: personas,
		Messages:         doc.Messages,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

func (s *Store) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	if _, err := s.sessions().InsertOne(ctx, toSessionDoc(session)); err != nil {
		return fmt.Errorf("mongo CreateSession: %w", err)
	}
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.ChatSession) error {
	res, err := s.sessions().ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: session.ID}, {Key: "owner_id", Value: session.OwnerID}},
		toSessionDoc(session),
	)
	if err != nil {
		return fmt.Errorf("mongo UpdateSession: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id, ownerID string) (*domain.ChatSession, error) {
	var doc sessionDoc
	err := s.sessions().FindOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "owner_id", Value: ownerID}},
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("mongo GetSession: %w", err)
	}
	return fromSessionDoc(doc), nil
}

func (s *Store) ListSessionsByOwner(ctx context.Context, ownerID string, limit int) ([]*domain.ChatSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := s.sessions().Find(ctx, bson.D{{Key: "owner_id", Value: ownerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo ListSessionsByOwner: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.ChatSession
	for cur.Next(ctx) {
		var doc sessionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}
		out = append(out, fromSessionDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo ListSessionsByOwner cursor: %w", err)
	}
	return out, nil
}

func (s *Store) GetProfile(ctx context.Context, email string) (*domain.UserProfile, error) {
	var doc userDoc
	err := s.users().FindOne(ctx, bson.D{{Key: "email", Value: normalizeEmail(email)}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo GetProfile: %w", err)
	}
	return &domain.UserProfile{Email: doc.Email, Name: doc.Name, CreatedAt: doc.CreatedAt}, nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.UserProfile) error {
	email := normalizeEmail(profile.Email)
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "name", Value: profile.Name}}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "email", Value: email},
			{Key: "created_at", Value: profile.CreatedAt},
		}},
	}
	_, err := s.users().UpdateOne(ctx, bson.D{{Key: "email", Value: email}}, update,
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo UpsertProfile: %w", err)
	}
	return nil
}

func (s *Store) GetPreferences(ctx context.Context, email string) (*domain.UserPreferences, error) {
	var doc preferencesDoc
	err := s.preferences().FindOne(ctx, bson.D{{Key: "email", Value: normalizeEmail(email)}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo GetPreferences: %w", err)
	}
	return &domain.UserPreferences{
		Email:             doc.Email,
		ParrotName:        doc.ParrotName,
		Times:             doc.Times,
		Frequency:         doc.Frequency,
		PushNotifications: doc.PushNotifications,
		EmailSummaries:    doc.EmailSummaries,
		Topics:            doc.Topics,
		UpdatedAt:         doc.UpdatedAt,
	}, nil
}

func (s *Store) UpsertPreferences(ctx context.Context, prefs *domain.UserPreferences) error {
	email := normalizeEmail(prefs.Email)
	doc := preferencesDoc{
		Email:             email,
		ParrotName:        prefs.ParrotName,
		Times:             prefs.Times,
		Frequency:         prefs.Frequency,
		PushNotifications: prefs.PushNotifications,
		EmailSummaries:    prefs.EmailSummaries,
		Topics:            prefs.Topics,
		UpdatedAt:         prefs.UpdatedAt,
	}
	_, err := s.preferences().ReplaceOne(ctx, bson.D{{Key: "email", Value: email}}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo UpsertPreferences: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
