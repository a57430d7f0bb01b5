package scanner

import (
	"encoding/json"
	"errors"
	"time"

	"ticketgate/internal/usecase/queries"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	ErrTicketNotCached = errors.New("ticket not in cache")
	ErrNoSnapshot      = errors.New("no snapshot downloaded")
	ErrClaimNotFound   = errors.New("claim not found")
)

const (
	bucketTickets = "tickets"
	bucketClaims  = "claims"
	bucketMeta    = "meta"

	metaKeySnapshot = "snapshot"
)

type snapshotMeta struct {
	EventID   uuid.UUID `json:"event_id"`
	SyncedAt  time.Time `json:"synced_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Cache is the scanner's single-file local store: the ticket snapshot and
// the offline claim queue. One file per device keeps replacement and
// recovery trivial.
type Cache struct {
	db *bolt.DB
}

func OpenCache(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketTickets, bucketClaims, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// ReplaceSnapshot swaps in a freshly downloaded snapshot. The ticket bucket
// is rebuilt from scratch; claims are kept, they belong to this device, not
// to the snapshot.
func (c *Cache) ReplaceSnapshot(snap *queries.CacheSnapshot) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketTickets)); err != nil {
			return err
		}
		b, err := tx.CreateBucket([]byte(bucketTickets))
		if err != nil {
			return err
		}

		for _, t := range snap.Tickets {
			data, err := json.Marshal(t)
			if err != nil {
				return err
			}
			if err := b.Put(t.ID[:], data); err != nil {
				return err
			}
		}

		meta := snapshotMeta{
			EventID:   snap.EventID,
			SyncedAt:  snap.SyncedAt,
			ExpiresAt: snap.ExpiresAt,
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketMeta)).Put([]byte(metaKeySnapshot), data)
	})
}

func (c *Cache) Snapshot() (eventID uuid.UUID, syncedAt, expiresAt time.Time, err error) {
	err = c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketMeta)).Get([]byte(metaKeySnapshot))
		if v == nil {
			return ErrNoSnapshot
		}
		var meta snapshotMeta
		if err := json.Unmarshal(v, &meta); err != nil {
			return err
		}
		eventID = meta.EventID
		syncedAt = meta.SyncedAt
		expiresAt = meta.ExpiresAt
		return nil
	})
	return
}

func (c *Cache) Ticket(id uuid.UUID) (*queries.CachedTicket, error) {
	var t queries.CachedTicket
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketTickets)).Get(id[:])
		if v == nil {
			return ErrTicketNotCached
		}
		return json.Unmarshal(v, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkTicketUsed updates the cached status after a local grant so the same
// device refuses a second presentation even before any sync happens.
func (c *Cache) MarkTicketUsed(id uuid.UUID) error {
	return c.SetTicketStatus(id, "used")
}

// SetTicketStatus overwrites the cached status for one ticket. Sync uses it
// to apply the server's authoritative status whatever the claim's own
// resolution came back as.
func (c *Cache) SetTicketStatus(id uuid.UUID, status string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketTickets))
		v := b.Get(id[:])
		if v == nil {
			return ErrTicketNotCached
		}
		var t queries.CachedTicket
		if err := json.Unmarshal(v, &t); err != nil {
			return err
		}
		t.Status = status
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return b.Put(id[:], data)
	})
}

func (c *Cache) EnqueueClaim(claim Claim) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(claim)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketClaims)).Put(claim.ID[:], data)
	})
}

// ClaimsByStatus returns up to limit claims in insertion-independent key
// order. Order does not matter for sync; the server resolves conflicts by
// arrival.
func (c *Cache) ClaimsByStatus(status ClaimStatus, limit int) ([]Claim, error) {
	var claims []Claim
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketClaims)).ForEach(func(_, v []byte) error {
			if limit > 0 && len(claims) >= limit {
				return nil
			}
			var claim Claim
			if err := json.Unmarshal(v, &claim); err != nil {
				return err
			}
			if claim.Status == status {
				claims = append(claims, claim)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *Cache) UpdateClaim(claim Claim) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketClaims))
		if b.Get(claim.ID[:]) == nil {
			return ErrClaimNotFound
		}
		data, err := json.Marshal(claim)
		if err != nil {
			return err
		}
		return b.Put(claim.ID[:], data)
	})
}
