package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"supplier-catalog/internal/domain"
	"supplier-catalog/internal/repository"

	"github.com/google/uuid"
)

type productKey struct {
	name       string
	categoryID int64
}

type pairKey struct {
	a, b int64
}

// memStore is an in-memory stand-in for the catalog tables. Every mutating
// call bumps writes so tests can assert that nothing was touched.
type memStore struct {
	shops          map[int64]domain.Shop
	categories     map[int64]string
	shopCategories map[pairKey]bool
	products       map[int64]domain.Product
	productIDs     map[productKey]int64
	listings       map[int64]domain.Listing
	listingIDs     map[pairKey]int64
	parameters     map[string]int64
	listingParams  map[pairKey]string
	contacts       map[uuid.UUID]domain.Contact
	orders         map[uuid.UUID]domain.Order
	items          map[uuid.UUID]domain.OrderItem

	nextID int64
	writes int

	// failAfter makes the n-th listing upsert fail; zero disables it
	failAfter int
	upserts   int
}

func newMemStore() *memStore {
	return &memStore{
		shops:          map[int64]domain.Shop{},
		categories:     map[int64]string{},
		shopCategories: map[pairKey]bool{},
		products:       map[int64]domain.Product{},
		productIDs:     map[productKey]int64{},
		listings:       map[int64]domain.Listing{},
		listingIDs:     map[pairKey]int64{},
		parameters:     map[string]int64{},
		listingParams:  map[pairKey]string{},
		contacts:       map[uuid.UUID]domain.Contact{},
		orders:         map[uuid.UUID]domain.Order{},
		items:          map[uuid.UUID]domain.OrderItem{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() *memStore {
	return &memStore{
		shops:          cloneMap(s.shops),
		categories:     cloneMap(s.categories),
		shopCategories: cloneMap(s.shopCategories),
		products:       cloneMap(s.products),
		productIDs:     cloneMap(s.productIDs),
		listings:       cloneMap(s.listings),
		listingIDs:     cloneMap(s.listingIDs),
		parameters:     cloneMap(s.parameters),
		listingParams:  cloneMap(s.listingParams),
		contacts:       cloneMap(s.contacts),
		orders:         cloneMap(s.orders),
		items:          cloneMap(s.items),
		nextID:         s.nextID,
		writes:         s.writes,
	}
}

func (s *memStore) restore(from *memStore) {
	s.shops = from.shops
	s.categories = from.categories
	s.shopCategories = from.shopCategories
	s.products = from.products
	s.productIDs = from.productIDs
	s.listings = from.listings
	s.listingIDs = from.listingIDs
	s.parameters = from.parameters
	s.listingParams = from.listingParams
	s.contacts = from.contacts
	s.orders = from.orders
	s.items = from.items
	s.nextID = from.nextID
	s.writes = from.writes
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) rowCount() int {
	return len(s.shops) + len(s.categories) + len(s.shopCategories) + len(s.products) +
		len(s.listings) + len(s.parameters) + len(s.listingParams)
}

func (s *memStore) repos() repository.Repositories {
	return repository.Repositories{
		Shops:      memShops{s},
		Categories: memCategories{s},
		Products:   memProducts{s},
		Listings:   memListings{s},
		Parameters: memParameters{s},
		Contacts:   memContacts{s},
		Orders:     memOrders{s},
	}
}

// memTransactor rolls the store back to a snapshot when fn fails
type memTransactor struct {
	store *memStore
}

func (t memTransactor) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	snap := t.store.snapshot()
	if err := fn(t.store.repos()); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type memShops struct{ s *memStore }

func (r memShops) Create(ctx context.Context, shop *domain.Shop) error {
	for _, existing := range r.s.shops {
		if existing.UserID != nil && shop.UserID != nil && *existing.UserID == *shop.UserID {
			return repository.ErrShopOwnerConflict
		}
	}
	shop.ID = r.s.id()
	r.s.shops[shop.ID] = *shop
	r.s.writes++
	return nil
}

func (r memShops) FindByOwner(ctx context.Context, userID uuid.UUID) (*domain.Shop, error) {
	for _, shop := range r.s.shops {
		if shop.UserID != nil && *shop.UserID == userID {
			found := shop
			return &found, nil
		}
	}
	return nil, repository.ErrShopNotFound
}

func (r memShops) FindByID(ctx context.Context, id int64) (*domain.Shop, error) {
	shop, ok := r.s.shops[id]
	if !ok {
		return nil, repository.ErrShopNotFound
	}
	return &shop, nil
}

func (r memShops) UpdateURL(ctx context.Context, id int64, url string) error {
	shop, ok := r.s.shops[id]
	if !ok {
		return repository.ErrShopNotFound
	}
	shop.URL = url
	r.s.shops[id] = shop
	r.s.writes++
	return nil
}

func (r memShops) UpdateState(ctx context.Context, id int64, state bool) error {
	shop, ok := r.s.shops[id]
	if !ok {
		return repository.ErrShopNotFound
	}
	shop.State = state
	r.s.shops[id] = shop
	r.s.writes++
	return nil
}

func (r memShops) List(ctx context.Context) ([]*domain.Shop, error) {
	shops := []*domain.Shop{}
	for _, shop := range r.s.shops {
		shop := shop
		shops = append(shops, &shop)
	}
	sort.Slice(shops, func(i, j int) bool { return shops[i].ID < shops[j].ID })
	return shops, nil
}

func (r memShops) ListImportable(ctx context.Context) ([]*domain.Shop, error) {
	all, _ := r.List(ctx)
	shops := []*domain.Shop{}
	for _, shop := range all {
		if shop.State && shop.UserID != nil && shop.URL != "" {
			shops = append(shops, shop)
		}
	}
	return shops, nil
}

type memCategories struct{ s *memStore }

func (r memCategories) Upsert(ctx context.Context, category *domain.Category) error {
	if name, ok := r.s.categories[category.ID]; ok {
		if name != category.Name {
			return repository.ErrCategoryConflict
		}
		return nil
	}
	r.s.categories[category.ID] = category.Name
	r.s.writes++
	return nil
}

func (r memCategories) AddShop(ctx context.Context, categoryID, shopID int64) error {
	key := pairKey{categoryID, shopID}
	if !r.s.shopCategories[key] {
		r.s.shopCategories[key] = true
		r.s.writes++
	}
	return nil
}

func (r memCategories) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.s.categories[id]
	return ok, nil
}

func (r memCategories) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for id, name := range r.s.categories {
		categories = append(categories, &domain.Category{ID: id, Name: name})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

type memProducts struct{ s *memStore }

func (r memProducts) GetOrCreate(ctx context.Context, name string, categoryID int64) (*domain.Product, bool, error) {
	key := productKey{name, categoryID}
	if id, ok := r.s.productIDs[key]; ok {
		product := r.s.products[id]
		return &product, false, nil
	}
	product := domain.Product{ID: r.s.id(), Name: name, CategoryID: categoryID}
	r.s.products[product.ID] = product
	r.s.productIDs[key] = product.ID
	r.s.writes++
	return &product, true, nil
}

func (r memProducts) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductView, error) {
	views := map[int64]*domain.ProductView{}
	listingIDs := make([]int64, 0, len(r.s.listings))
	for id := range r.s.listings {
		listingIDs = append(listingIDs, id)
	}
	sort.Slice(listingIDs, func(i, j int) bool { return listingIDs[i] < listingIDs[j] })

	for _, id := range listingIDs {
		listing := r.s.listings[id]
		shop := r.s.shops[listing.ShopID]
		product := r.s.products[listing.ProductID]
		if !shop.State {
			continue
		}
		if filter.ShopID != nil && *filter.ShopID != shop.ID {
			continue
		}
		if filter.CategoryID != nil && *filter.CategoryID != product.CategoryID {
			continue
		}

		view, ok := views[product.ID]
		if !ok {
			view = &domain.ProductView{ID: product.ID, Name: product.Name, Category: r.s.categories[product.CategoryID]}
			views[product.ID] = view
		}
		params, _ := memParameters{r.s}.ListForListing(ctx, listing.ID)
		view.Listings = append(view.Listings, domain.ListingView{
			ID:         listing.ID,
			ShopID:     shop.ID,
			Shop:       shop.Name,
			ExternalID: listing.ExternalID,
			Model:      listing.Model,
			Name:       listing.Name,
			Quantity:   listing.Quantity,
			Price:      listing.Price,
			PriceRRP:   listing.PriceRRP,
			Parameters: params,
		})
	}

	out := []*domain.ProductView{}
	for _, view := range views {
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memListings struct{ s *memStore }

var errInjected = errors.New("injected failure")

func (r memListings) Upsert(ctx context.Context, listing *domain.Listing) error {
	r.s.upserts++
	if r.s.failAfter > 0 && r.s.upserts >= r.s.failAfter {
		return errInjected
	}

	key := pairKey{listing.ProductID, listing.ShopID}
	if id, ok := r.s.listingIDs[key]; ok {
		listing.ID = id
		listing.CreatedAt = r.s.listings[id].CreatedAt
	} else {
		listing.ID = r.s.id()
		listing.CreatedAt = listing.UpdatedAt
		r.s.listingIDs[key] = listing.ID
	}
	r.s.listings[listing.ID] = *listing
	r.s.writes++
	return nil
}

func (r memListings) FindByProductAndShop(ctx context.Context, productID, shopID int64) (*domain.Listing, error) {
	id, ok := r.s.listingIDs[pairKey{productID, shopID}]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	listing := r.s.listings[id]
	return &listing, nil
}

type memParameters struct{ s *memStore }

func (r memParameters) GetOrCreate(ctx context.Context, name string) (*domain.Parameter, error) {
	if id, ok := r.s.parameters[name]; ok {
		return &domain.Parameter{ID: id, Name: name}, nil
	}
	id := r.s.id()
	r.s.parameters[name] = id
	r.s.writes++
	return &domain.Parameter{ID: id, Name: name}, nil
}

func (r memParameters) SetValue(ctx context.Context, listingID, parameterID int64, value string) error {
	r.s.listingParams[pairKey{listingID, parameterID}] = value
	r.s.writes++
	return nil
}

func (r memParameters) ListForListing(ctx context.Context, listingID int64) ([]domain.ParameterValue, error) {
	values := []domain.ParameterValue{}
	for name, id := range r.s.parameters {
		if value, ok := r.s.listingParams[pairKey{listingID, id}]; ok {
			values = append(values, domain.ParameterValue{Parameter: name, Value: value})
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Parameter < values[j].Parameter })
	return values, nil
}

type memContacts struct{ s *memStore }

func (r memContacts) Create(ctx context.Context, contact *domain.Contact) error {
	r.s.contacts[contact.ID] = *contact
	return nil
}

func (r memContacts) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Contact, error) {
	contacts := []*domain.Contact{}
	for _, c := range r.s.contacts {
		if c.UserID == userID {
			c := c
			contacts = append(contacts, &c)
		}
	}
	return contacts, nil
}

func (r memContacts) FindForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Contact, error) {
	c, ok := r.s.contacts[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrContactNotFound
	}
	return &c, nil
}

func (r memContacts) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	c, ok := r.s.contacts[id]
	if !ok || c.UserID != userID {
		return repository.ErrContactNotFound
	}
	delete(r.s.contacts, id)
	return nil
}

type memOrders struct{ s *memStore }

func (r memOrders) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	if cart, err := r.FindCart(ctx, userID); err == nil {
		return cart, nil
	}
	now := time.Now()
	cart := domain.Order{ID: uuid.New(), UserID: userID, Status: domain.OrderStatusCart, CreatedAt: now, UpdatedAt: now}
	r.s.orders[cart.ID] = cart
	return &cart, nil
}

func (r memOrders) FindCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	for _, o := range r.s.orders {
		if o.UserID == userID && o.Status == domain.OrderStatusCart {
			o := o
			return &o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (r memOrders) UpsertItem(ctx context.Context, item *domain.OrderItem) error {
	if _, ok := r.s.listingIDs[pairKey{item.ProductID, item.ShopID}]; !ok {
		return repository.ErrListingUnavailable
	}
	if !r.s.shops[item.ShopID].State {
		return repository.ErrListingUnavailable
	}
	for id, existing := range r.s.items {
		if existing.OrderID == item.OrderID && existing.ProductID == item.ProductID && existing.ShopID == item.ShopID {
			existing.Quantity = item.Quantity
			r.s.items[id] = existing
			item.ID = id
			return nil
		}
	}
	r.s.items[item.ID] = *item
	return nil
}

func (r memOrders) DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	item, ok := r.s.items[itemID]
	if !ok || item.OrderID != orderID {
		return repository.ErrOrderItemNotFound
	}
	delete(r.s.items, itemID)
	return nil
}

func (r memOrders) itemViews(orderID uuid.UUID, shopID *int64) []domain.OrderItemView {
	views := []domain.OrderItemView{}
	for _, item := range r.s.items {
		if item.OrderID != orderID || (shopID != nil && item.ShopID != *shopID) {
			continue
		}
		price := 0
		if id, ok := r.s.listingIDs[pairKey{item.ProductID, item.ShopID}]; ok {
			price = r.s.listings[id].Price
		}
		views = append(views, domain.OrderItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Product:   r.s.products[item.ProductID].Name,
			ShopID:    item.ShopID,
			Shop:      r.s.shops[item.ShopID].Name,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ProductID < views[j].ProductID })
	return views
}

func (r memOrders) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItemView, error) {
	return r.itemViews(orderID, nil), nil
}

func (r memOrders) ListShopItems(ctx context.Context, orderID uuid.UUID, shopID int64) ([]domain.OrderItemView, error) {
	return r.itemViews(orderID, &shopID), nil
}

func (r memOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	for _, o := range r.s.orders {
		if o.UserID == userID && o.Status != domain.OrderStatusCart {
			o := o
			orders = append(orders, &o)
		}
	}
	return orders, nil
}

func (r memOrders) Confirm(ctx context.Context, orderID, contactID uuid.UUID) error {
	o, ok := r.s.orders[orderID]
	if !ok || o.Status != domain.OrderStatusCart {
		return repository.ErrOrderNotFound
	}
	o.Status = domain.OrderStatusNew
	o.ContactID = &contactID
	r.s.orders[orderID] = o
	return nil
}

func (r memOrders) ListByShop(ctx context.Context, shopID int64) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	for _, o := range r.s.orders {
		if o.Status == domain.OrderStatusCart {
			continue
		}
		if len(r.itemViews(o.ID, &shopID)) > 0 {
			o := o
			orders = append(orders, &o)
		}
	}
	return orders, nil
}

type fakeFetcher struct {
	documents map[string][]byte
	err       error
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.documents[rawURL]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc, nil
}

type fakeArchiver struct {
	stored map[int64][][]byte
	err    error
}

func (f *fakeArchiver) Store(ctx context.Context, shopID int64, document []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.stored == nil {
		f.stored = map[int64][][]byte{}
	}
	f.stored[shopID] = append(f.stored[shopID], document)
	return "key", nil
}
