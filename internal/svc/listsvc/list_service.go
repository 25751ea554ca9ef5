package listsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrupp/homecase-lists/internal/domain"
	"github.com/mkrupp/homecase-lists/internal/infra/logging"
	"github.com/mkrupp/homecase-lists/internal/repo"
)

// AccountDeletedMessage is the message carried by a successful DeleteAccount confirmation.
const AccountDeletedMessage = "Successfully deleted account"

// ListService manages users and their item lists.
// Every operation runs inside a single store transaction, so the read-modify-write
// cycles of AddItem, UpdateItem and DeleteItem never lose concurrent updates.
type ListService struct {
	Config ListConfig
	Store  repo.Store
	IDs    domain.IDGenerator
	Clock  func() time.Time
	Log    logging.Logger
}

// NewListService creates a new ListService backed by a store from storeFactory.
// Returns an error if the store cannot be created.
func NewListService(ctx context.Context, storeFactory repo.StoreFactory, cfg ListConfig) (*ListService, error) {
	log := logging.GetLogger("svc.listsvc.list_service")

	store, err := storeFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}

	return &ListService{
		Config: cfg,
		Store:  store,
		IDs:    domain.RandomIDGenerator{},
		Clock:  time.Now,
		Log:    log,
	}, nil
}

// Close releases the underlying store.
func (s *ListService) Close() error {
	if err := s.Store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	return nil
}

// Whoami returns the user registered under userID.
// Returns domain.ErrUserNotFound if there is none.
func (s *ListService) Whoami(ctx context.Context, userID domain.ID) (usr *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "id", userID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "whoami failed", "error", err)
		} else {
			log.DebugContext(ctx, "whoami")
		}
	}()

	err = s.Store.View(ctx, func(tx repo.Tx) error {
		u, ok, err := tx.Users().Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		} else if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
		}

		usr = u

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return usr, nil
}

// Register creates a user with a fresh id together with its empty list.
// Names are not checked for uniqueness.
func (s *ListService) Register(ctx context.Context, name string) (usr *domain.User, err error) {
	u := domain.User{
		ID:        s.IDs.Generate(),
		Name:      name,
		CreatedAt: s.Clock().Unix(),
	}

	log := s.Log.With(logging.Group("user", "id", u.ID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	err = s.Store.Update(ctx, func(tx repo.Tx) error {
		if err := tx.Users().Insert(ctx, u); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		if err := tx.Lists().CreateEmpty(ctx, u.ID); err != nil {
			return fmt.Errorf("create list: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &u, nil
}

// DeleteAccount removes the user and its whole list in one transaction.
// Returns domain.ErrUserNotFound if the user does not exist.
func (s *ListService) DeleteAccount(ctx context.Context, userID domain.ID) (conf domain.Confirmation, err error) {
	log := s.Log.With(logging.Group("user", "id", userID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete account failed", "error", err)
		} else {
			log.DebugContext(ctx, "account deleted")
		}
	}()

	err = s.Store.Update(ctx, func(tx repo.Tx) error {
		_, ok, err := tx.Users().Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		} else if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
		}

		// list first: it references the user
		if err := tx.Lists().Remove(ctx, userID); err != nil {
			return fmt.Errorf("remove list: %w", err)
		}

		if err := tx.Users().Remove(ctx, userID); err != nil {
			return fmt.Errorf("remove user: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Confirmation{}, err //nolint:wrapcheck
	}

	return domain.Confirmation{UserID: userID, Message: AccountDeletedMessage}, nil
}

// GetItems returns the owner's items in insertion order.
// The boolean is false when the owner has never registered.
func (s *ListService) GetItems(ctx context.Context, userID domain.ID) (items []domain.ListItem, ok bool, err error) {
	log := s.Log.With(logging.Group("user", "id", userID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "get items failed", "error", err)
		} else {
			log.DebugContext(ctx, "items fetched", "found", ok, "count", len(items))
		}
	}()

	err = s.Store.View(ctx, func(tx repo.Tx) error {
		items, ok, err = tx.Lists().Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("get list: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, false, err //nolint:wrapcheck
	}

	return items, ok, nil
}

// AddItem appends a new item with the given text to the user's list.
// Returns domain.ErrUserNotFound if the user does not exist and
// domain.ErrInconsistentState if the user exists without a list.
func (s *ListService) AddItem(ctx context.Context, userID domain.ID, text string) (item *domain.ListItem, err error) {
	log := s.Log.With(logging.Group("user", "id", userID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "add item failed", "error", err)
		} else {
			log.DebugContext(ctx, "item added", logging.Group("item", "id", item.ID))
		}
	}()

	err = s.Store.Update(ctx, func(tx repo.Tx) error {
		_, ok, err := tx.Users().Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		} else if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
		}

		now := s.Clock().Unix()
		newItem := domain.ListItem{
			ID:        s.IDs.Generate(),
			OwnerID:   userID,
			Text:      text,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := tx.Lists().Append(ctx, userID, newItem); err != nil {
			return fmt.Errorf("append item: %w", err)
		}

		item = &newItem

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return item, nil
}

// UpdateItem replaces the text of one item in the owner's list.
// Returns domain.ErrUserNotFound if the owner has no list,
// domain.ErrInconsistentState if the owner exists without a list and
// domain.ErrListItemNotFound if the item is not in the list.
func (s *ListService) UpdateItem(
	ctx context.Context,
	ownerID, itemID domain.ID,
	text string,
) (item *domain.ListItem, err error) {
	log := s.Log.With(
		logging.Group("user", "id", ownerID),
		logging.Group("item", "id", itemID),
	)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "update item failed", "error", err)
		} else {
			log.DebugContext(ctx, "item updated")
		}
	}()

	err = s.Store.Update(ctx, func(tx repo.Tx) error {
		items, err := s.requireList(ctx, tx, ownerID, domain.ErrUserNotFound)
		if err != nil {
			return err
		}

		idx := domain.IndexOf(items, itemID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", domain.ErrListItemNotFound, itemID)
		}

		items[idx].Text = text
		items[idx].UpdatedAt = s.Clock().Unix()

		if err := tx.Lists().Replace(ctx, ownerID, items); err != nil {
			return fmt.Errorf("replace list: %w", err)
		}

		updated := items[idx]
		item = &updated

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return item, nil
}

// DeleteItem removes the item from the owner's list and returns the remaining items.
// Deleting an id that is not in the list leaves it unchanged and succeeds, unless
// Config.StrictDelete is set. Returns domain.ErrListItemNotFound if the owner has
// no list and domain.ErrInconsistentState if the owner exists without a list.
func (s *ListService) DeleteItem(
	ctx context.Context,
	ownerID, itemID domain.ID,
) (remaining []domain.ListItem, err error) {
	log := s.Log.With(
		logging.Group("user", "id", ownerID),
		logging.Group("item", "id", itemID),
	)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete item failed", "error", err)
		} else {
			log.DebugContext(ctx, "item deleted", "remaining", len(remaining))
		}
	}()

	err = s.Store.Update(ctx, func(tx repo.Tx) error {
		items, err := s.requireList(ctx, tx, ownerID, domain.ErrListItemNotFound)
		if err != nil {
			return err
		}

		if s.Config.StrictDelete && domain.IndexOf(items, itemID) < 0 {
			return fmt.Errorf("%w: %s", domain.ErrListItemNotFound, itemID)
		}

		remaining = domain.Without(items, itemID)

		if err := tx.Lists().Replace(ctx, ownerID, remaining); err != nil {
			return fmt.Errorf("replace list: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return remaining, nil
}

// requireList loads the owner's list. A missing list yields errMissing when the
// owner is unknown too, and domain.ErrInconsistentState when the owner exists.
func (s *ListService) requireList(
	ctx context.Context,
	tx repo.Tx,
	ownerID domain.ID,
	errMissing error,
) ([]domain.ListItem, error) {
	items, ok, err := tx.Lists().Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	} else if ok {
		return items, nil
	}

	_, userOK, err := tx.Users().Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	} else if userOK {
		return nil, fmt.Errorf("%w: owner %s", domain.ErrInconsistentState, ownerID)
	}

	return nil, fmt.Errorf("%w: %s", errMissing, ownerID)
}
