package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"invitetrack/entity"
	"invitetrack/internal/config"
	"invitetrack/lib/clock"
)

const (
	collectionInvites    = "invites"
	collectionStats      = "member_stats"
	collectionDailyStats = "daily_stats"
	collectionUsers      = "users"
)

type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	_ = connection.Disconnect(ctx)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find: %w", err)
}

func (m *MongoDB) UpsertInvite(ctx context.Context, invite *entity.Invite) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionInvites)
	filter := bson.D{{Key: "code", Value: invite.Code}, {Key: "guild_id", Value: invite.GuildID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "inviter_id", Value: invite.InviterID},
			{Key: "max_uses", Value: invite.MaxUses},
			{Key: "expires_at", Value: invite.ExpiresAt},
			{Key: "active", Value: true},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "uses", Value: 0},
			{Key: "created_at", Value: invite.CreatedAt},
		}},
	}
	opts := options.Update().SetUpsert(true)
	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoDB) SetInviteUses(ctx context.Context, code string, uses int) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionInvites)
	filter := bson.D{{Key: "code", Value: code}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "uses", Value: uses}}}}
	_, err = collection.UpdateOne(ctx, filter, update)
	return err
}

func (m *MongoDB) DeactivateInvite(ctx context.Context, code string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionInvites)
	filter := bson.D{{Key: "code", Value: code}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "active", Value: false}}}}
	_, err = collection.UpdateOne(ctx, filter, update)
	return err
}

// CreditJoin relies on upserted $inc updates, which mongod applies atomically
// per document, so back-to-back credits for the same inviter never lose one.
func (m *MongoDB) CreditJoin(ctx context.Context, guildID, inviterID string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	db := connection.Database(m.database)
	opts := options.Update().SetUpsert(true)

	stats := db.Collection(collectionStats)
	filter := bson.D{{Key: "user_id", Value: inviterID}, {Key: "guild_id", Value: guildID}}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "total_uses", Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: "last_updated", Value: time.Now().UTC()}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "total_invites", Value: 0}}},
	}
	if _, err = stats.UpdateOne(ctx, filter, update, opts); err != nil {
		return err
	}

	daily := db.Collection(collectionDailyStats)
	filter = bson.D{{Key: "user_id", Value: inviterID}, {Key: "guild_id", Value: guildID}, {Key: "date", Value: clock.Today()}}
	update = bson.D{{Key: "$inc", Value: bson.D{{Key: "uses", Value: 1}}}}
	_, err = daily.UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoDB) SetInviteCount(ctx context.Context, guildID, userID string, count int) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionStats)
	filter := bson.D{{Key: "user_id", Value: userID}, {Key: "guild_id", Value: guildID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "total_invites", Value: count},
			{Key: "last_updated", Value: time.Now().UTC()},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "total_uses", Value: 0}}},
	}
	opts := options.Update().SetUpsert(true)
	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoDB) Leaderboard(ctx context.Context, guildID string, limit int) ([]*entity.LeaderboardEntry, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionStats)
	filter := bson.D{{Key: "guild_id", Value: guildID}}
	opts := options.Find().
		SetSort(bson.D{{Key: "total_uses", Value: -1}, {Key: "total_invites", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, m.findError(err)
	}
	defer cursor.Close(ctx)

	var entries []*entity.LeaderboardEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (m *MongoDB) DailyLeaderboard(ctx context.Context, guildID string, windowDays, limit int) ([]*entity.LeaderboardEntry, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionDailyStats)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "guild_id", Value: guildID},
			{Key: "date", Value: bson.D{{Key: "$gte", Value: clock.WindowStart(windowDays)}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$user_id"},
			{Key: "total_uses", Value: bson.D{{Key: "$sum", Value: "$uses"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total_uses", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		UserID    string `bson:"_id"`
		TotalUses int    `bson:"total_uses"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	entries := make([]*entity.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &entity.LeaderboardEntry{
			UserID:    row.UserID,
			TotalUses: row.TotalUses,
		})
	}
	return entries, nil
}

func (m *MongoDB) UserStats(ctx context.Context, guildID, userID string) (*entity.MemberStats, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionStats)
	filter := bson.D{{Key: "user_id", Value: userID}, {Key: "guild_id", Value: guildID}}
	var stats entity.MemberStats
	err = collection.FindOne(ctx, filter).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &entity.MemberStats{UserID: userID, GuildID: guildID}, nil
	}
	if err != nil {
		return nil, m.findError(err)
	}
	return &stats, nil
}

func (m *MongoDB) GetUser(ctx context.Context, token string) (*entity.User, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "token", Value: token}}
	var user entity.User
	err = collection.FindOne(ctx, filter).Decode(&user)
	return &user, err
}

func (m *MongoDB) SaveUser(ctx context.Context, user *entity.User) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "username", Value: user.Username}}
	update := bson.D{{Key: "$set", Value: user}}
	opts := options.Update().SetUpsert(true)
	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}
