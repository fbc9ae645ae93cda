package catalog

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fairyhunter13/hampers-storefront/internal/identity"
	"github.com/fairyhunter13/hampers-storefront/internal/model"
	"github.com/fairyhunter13/hampers-storefront/internal/obs"
)

// FirestoreSource listens on artifacts/{appID}/public/data/products.
type FirestoreSource struct {
	client *firestore.Client
	appID  string
}

// NewFirestoreSource reads the product collection of appID.
func NewFirestoreSource(client *firestore.Client, appID string) *FirestoreSource {
	return &FirestoreSource{client: client, appID: appID}
}

func (s *FirestoreSource) collection() *firestore.CollectionRef {
	return s.client.Collection("artifacts").Doc(s.appID).
		Collection("public").Doc("data").
		Collection("products")
}

// Subscribe starts a snapshot listener. A listener error is forwarded once
// and ends the stream; reconnecting is left to the caller.
func (s *FirestoreSource) Subscribe(ctx context.Context, id identity.Identity) (Subscription, error) {
	ref := s.collection()
	obs.Logger.WithField("path", Namespace(s.appID)).WithField("uid", id.UID).Info("firestore_listen")
	return newStream(ctx, func(ctx context.Context, emit emitFunc) {
		it := ref.Snapshots(ctx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				emit(Update{Err: errors.Wrap(err, "listen products")})
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				if !emit(Update{Err: errors.Wrap(err, "read products snapshot")}) {
					return
				}
				continue
			}
			products := make([]model.Product, 0, len(docs))
			for _, d := range docs {
				products = append(products, model.ProductFromData(d.Ref.ID, d.Data()))
			}
			if !emit(Update{Products: products}) {
				return
			}
		}
	}), nil
}
