package repository

import (
	"context"
	"log"

	"github.com/teenai/paperchat-be/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type ChatRepo struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepo(db *mongo.Database) *ChatRepo {
	messages := db.Collection("messages")
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "chat_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
		},
	}
	if _, err := messages.Indexes().CreateMany(context.Background(), indexes); err != nil {
		log.Printf("Error creating message indexes: %v", err)
	}

	chats := db.Collection("chats")
	chatIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "updated_at", Value: -1},
			},
		},
	}
	if _, err := chats.Indexes().CreateMany(context.Background(), chatIndexes); err != nil {
		log.Printf("Error creating chat indexes: %v", err)
	}

	return &ChatRepo{
		chats:    chats,
		messages: messages,
	}
}

func (r *ChatRepo) CreateChat(ctx context.Context, chat *types.Chat) error {
	_, err := r.chats.InsertOne(ctx, chat)
	return err
}

func (r *ChatRepo) GetChat(ctx context.Context, id string) (*types.Chat, error) {
	var chat types.Chat
	err := r.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepo) ListChats(ctx context.Context, userID string) ([]types.Chat, error) {
	cursor, err := r.chats.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chats []types.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *ChatRepo) TouchChat(ctx context.Context, id string, updatedAt int64) error {
	_, err := r.chats.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"updated_at": updatedAt}})
	return err
}

func (r *ChatRepo) DeleteChat(ctx context.Context, id string) error {
	if _, err := r.messages.DeleteMany(ctx, bson.M{"chat_id": id}); err != nil {
		return err
	}
	_, err := r.chats.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *ChatRepo) CreateMessage(ctx context.Context, message *types.Message) error {
	_, err := r.messages.InsertOne(ctx, message)
	return err
}

func (r *ChatRepo) GetMessages(ctx context.Context, chatID string) ([]types.Message, error) {
	cursor, err := r.messages.Find(ctx, bson.M{"chat_id": chatID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []types.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *ChatRepo) DeleteMessages(ctx context.Context, chatID string) error {
	_, err := r.messages.DeleteMany(ctx, bson.M{"chat_id": chatID})
	return err
}
