package firestoredocs

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/angelmondragon/cropmarket-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/cropmarket-backend/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Repository stores carts and order history on users/{uid} documents and
// order records in a top-level orders collection.
type Repository struct {
	client *firestore.Client
	users  string
	orders string
}

var (
	_ cart.UserStore  = (*Repository)(nil)
	_ cart.OrderStore = (*Repository)(nil)
)

// NewRepository binds the repository to the given collections.
func NewRepository(client *firestore.Client, usersCollection, ordersCollection string) *Repository {
	if usersCollection == "" {
		usersCollection = "users"
	}
	if ordersCollection == "" {
		ordersCollection = "orders"
	}
	return &Repository{client: client, users: usersCollection, orders: ordersCollection}
}

func (r *Repository) userDoc(userID string) *firestore.DocumentRef {
	return r.client.Collection(r.users).Doc(userID)
}

func (r *Repository) ReadUserRecord(ctx context.Context, userID string) (*cart.UserRecord, error) {
	snap, err := r.userDoc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, cart.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read user %s: %w", userID, err)
	}
	return userRecordFromData(userID, snap.Data())
}

func userRecordFromData(userID string, data map[string]any) (*cart.UserRecord, error) {
	record := &cart.UserRecord{ID: userID}
	if raw, ok := data[fieldCart]; ok && raw != nil {
		lines, err := linesFromDocs(raw)
		if err != nil {
			return nil, fmt.Errorf("decode cart for %s: %w", userID, err)
		}
		record.Cart = lines
		record.HasCart = true
	}
	history, err := ordersFromDocs(data[fieldOrders], userID)
	if err != nil {
		return nil, fmt.Errorf("decode orders for %s: %w", userID, err)
	}
	record.Orders = history
	return record, nil
}

// WriteUserCart merges the cart field, creating the document if needed.
func (r *Repository) WriteUserCart(ctx context.Context, userID string, lines []cart.Line) error {
	_, err := r.userDoc(userID).Set(ctx, map[string]any{
		fieldCart: linesToDocs(lines),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("write cart for %s: %w", userID, err)
	}
	return nil
}

// DeleteUserCart removes the cart field. A missing document is not an error.
func (r *Repository) DeleteUserCart(ctx context.Context, userID string) error {
	_, err := r.userDoc(userID).Update(ctx, []firestore.Update{
		{Path: fieldCart, Value: firestore.Delete},
	})
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete cart for %s: %w", userID, err)
	}
	return nil
}

func (r *Repository) AppendUserOrder(ctx context.Context, userID string, order cart.OrderRecord) error {
	_, err := r.userDoc(userID).Set(ctx, map[string]any{
		fieldOrders: firestore.ArrayUnion(orderToDoc(order)),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("append order %s for %s: %w", order.ID, userID, err)
	}
	return nil
}

// CreateOrder writes the order under its id, or a generated one when empty.
// An existing document with the same id is treated as a retried write.
func (r *Repository) CreateOrder(ctx context.Context, order cart.OrderRecord) (string, error) {
	if order.OwnerID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order owner is required")
	}
	col := r.client.Collection(r.orders)
	ref := col.NewDoc()
	if order.ID != "" {
		ref = col.Doc(order.ID)
	}
	order.ID = ref.ID

	doc := orderToDoc(order)
	doc[fieldUserID] = order.OwnerID
	_, err := ref.Create(ctx, doc)
	if status.Code(err) == codes.AlreadyExists {
		return order.ID, nil
	}
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	return order.ID, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*cart.OrderRecord, error) {
	snap, err := r.client.Collection(r.orders).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("read order %s: %w", id, err)
	}
	order, err := orderFromDoc(snap.Data(), "")
	if err != nil {
		return nil, fmt.Errorf("decode order %s: %w", id, err)
	}
	if order.ID == "" {
		order.ID = snap.Ref.ID
	}
	return &order, nil
}
