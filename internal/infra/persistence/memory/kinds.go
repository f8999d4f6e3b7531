package memory

import (
	"fmt"

	"upvcerp/pkg/domain"
)

// kind binds an entity type to its collection, id field and clone function so
// create/update/delete are written once for every collection.
type kind[T any] struct {
	entity domain.EntityType
	prefix string
	coll   func(*memoryState) *collection[T]
	id     func(*T) *string
	clone  func(T) T
}

var (
	customers = kind[domain.Customer]{
		entity: domain.EntityCustomer,
		prefix: domain.PrefixCustomer,
		coll:   func(s *memoryState) *collection[domain.Customer] { return &s.customers },
		id:     func(v *domain.Customer) *string { return &v.ID },
		clone:  identity[domain.Customer],
	}
	suppliers = kind[domain.Supplier]{
		entity: domain.EntitySupplier,
		prefix: domain.PrefixSupplier,
		coll:   func(s *memoryState) *collection[domain.Supplier] { return &s.suppliers },
		id:     func(v *domain.Supplier) *string { return &v.ID },
		clone:  identity[domain.Supplier],
	}
	inventory = kind[domain.InventoryItem]{
		entity: domain.EntityInventoryItem,
		prefix: domain.PrefixInventoryItem,
		coll:   func(s *memoryState) *collection[domain.InventoryItem] { return &s.inventory },
		id:     func(v *domain.InventoryItem) *string { return &v.ID },
		clone:  identity[domain.InventoryItem],
	}
	enquiries = kind[domain.Enquiry]{
		entity: domain.EntityEnquiry,
		prefix: domain.PrefixEnquiry,
		coll:   func(s *memoryState) *collection[domain.Enquiry] { return &s.enquiries },
		id:     func(v *domain.Enquiry) *string { return &v.ID },
		clone:  identity[domain.Enquiry],
	}
	quotations = kind[domain.Quotation]{
		entity: domain.EntityQuotation,
		prefix: domain.PrefixQuotation,
		coll:   func(s *memoryState) *collection[domain.Quotation] { return &s.quotations },
		id:     func(v *domain.Quotation) *string { return &v.ID },
		clone:  cloneQuotation,
	}
	salesOrders = kind[domain.SalesOrder]{
		entity: domain.EntitySalesOrder,
		prefix: domain.PrefixSalesOrder,
		coll:   func(s *memoryState) *collection[domain.SalesOrder] { return &s.salesOrders },
		id:     func(v *domain.SalesOrder) *string { return &v.ID },
		clone:  cloneSalesOrder,
	}
	purchaseOrders = kind[domain.PurchaseOrder]{
		entity: domain.EntityPurchaseOrder,
		prefix: domain.PrefixPurchaseOrder,
		coll:   func(s *memoryState) *collection[domain.PurchaseOrder] { return &s.purchaseOrders },
		id:     func(v *domain.PurchaseOrder) *string { return &v.ID },
		clone:  clonePurchaseOrder,
	}
	productionJobs = kind[domain.ProductionJob]{
		entity: domain.EntityProductionJob,
		prefix: domain.PrefixProductionJob,
		coll:   func(s *memoryState) *collection[domain.ProductionJob] { return &s.productionJobs },
		id:     func(v *domain.ProductionJob) *string { return &v.ID },
		clone:  identity[domain.ProductionJob],
	}
	dispatches = kind[domain.Dispatch]{
		entity: domain.EntityDispatch,
		prefix: domain.PrefixDispatch,
		coll:   func(s *memoryState) *collection[domain.Dispatch] { return &s.dispatches },
		id:     func(v *domain.Dispatch) *string { return &v.ID },
		clone:  identity[domain.Dispatch],
	}
	installations = kind[domain.Installation]{
		entity: domain.EntityInstallation,
		prefix: domain.PrefixInstallation,
		coll:   func(s *memoryState) *collection[domain.Installation] { return &s.installations },
		id:     func(v *domain.Installation) *string { return &v.ID },
		clone:  cloneInstallation,
	}
	warrantyClaims = kind[domain.WarrantyClaim]{
		entity: domain.EntityWarrantyClaim,
		prefix: domain.PrefixWarrantyClaim,
		coll:   func(s *memoryState) *collection[domain.WarrantyClaim] { return &s.warrantyClaims },
		id:     func(v *domain.WarrantyClaim) *string { return &v.ID },
		clone:  cloneWarrantyClaim,
	}
)

func (k kind[T]) find(s *memoryState, id string) (T, bool) {
	v, ok := k.coll(s).get(id)
	if !ok {
		var zero T
		return zero, false
	}
	return k.clone(v), true
}

func (k kind[T]) list(s *memoryState) []T {
	return k.coll(s).values(k.clone)
}

func (k kind[T]) create(tx *transaction, v T) (T, error) {
	var zero T
	c := k.coll(&tx.state)
	id := k.id(&v)
	if *id == "" {
		*id = tx.newUniqueID(k.prefix, c.has)
	} else if c.has(*id) {
		return zero, fmt.Errorf("%s %q already exists", k.entity, *id)
	}
	c.put(*id, k.clone(v))
	tx.recordChange(domain.Change{Entity: k.entity, Action: domain.ActionCreate, After: k.clone(v)})
	return k.clone(v), nil
}

func (k kind[T]) update(tx *transaction, id string, mutator func(*T) error) (T, error) {
	var zero T
	c := k.coll(&tx.state)
	current, ok := c.get(id)
	if !ok {
		return zero, &domain.NotFoundError{Entity: k.entity, ID: id}
	}
	before := k.clone(current)
	next := k.clone(current)
	if err := mutator(&next); err != nil {
		return zero, err
	}
	*k.id(&next) = id
	c.put(id, k.clone(next))
	tx.recordChange(domain.Change{Entity: k.entity, Action: domain.ActionUpdate, Before: before, After: k.clone(next)})
	return k.clone(next), nil
}

func (k kind[T]) remove(tx *transaction, id string) error {
	c := k.coll(&tx.state)
	current, ok := c.get(id)
	if !ok {
		return &domain.NotFoundError{Entity: k.entity, ID: id}
	}
	c.remove(id)
	tx.recordChange(domain.Change{Entity: k.entity, Action: domain.ActionDelete, Before: k.clone(current)})
	return nil
}
