package domain

// Lifecycle is the transition table of one status-bearing entity.
type Lifecycle struct {
	entity EntityType
	states []string
	edges  map[string]map[string]struct{}
}

// Entity returns the entity the lifecycle governs.
func (l Lifecycle) Entity() EntityType { return l.entity }

// States returns the known states in declaration order.
func (l Lifecycle) States() []string { return append([]string(nil), l.states...) }

// Valid reports whether state is a known state.
func (l Lifecycle) Valid(state string) bool {
	_, ok := l.edges[state]
	return ok
}

// Allows reports whether from -> to is a permitted transition.
func (l Lifecycle) Allows(from, to string) bool {
	_, ok := l.edges[from][to]
	return ok
}

// Terminal reports whether no transition leaves state.
func (l Lifecycle) Terminal(state string) bool {
	return l.Valid(state) && len(l.edges[state]) == 0
}

// Check returns an InvalidTransitionError unless from -> to is permitted.
func (l Lifecycle) Check(id, from, to string) error {
	if !l.Valid(to) || !l.Allows(from, to) {
		return &InvalidTransitionError{Entity: l.entity, ID: id, From: from, To: to}
	}
	return nil
}

func newLifecycle(entity EntityType, states []string, edges map[string][]string) Lifecycle {
	l := Lifecycle{entity: entity, states: states, edges: make(map[string]map[string]struct{}, len(states))}
	for _, s := range states {
		l.edges[s] = toSet(edges[s]...)
	}
	return l
}

// forwardOnly permits any move to a strictly later state.
func forwardOnly(entity EntityType, states ...string) Lifecycle {
	edges := make(map[string][]string, len(states))
	for i, s := range states {
		edges[s] = append([]string(nil), states[i+1:]...)
	}
	return newLifecycle(entity, states, edges)
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func stringsOf[S ~string](values ...S) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var (
	enquiryLifecycle = newLifecycle(EntityEnquiry,
		stringsOf(EnquiryNew, EnquiryQuoted, EnquiryClosed),
		map[string][]string{
			string(EnquiryNew):    stringsOf(EnquiryQuoted, EnquiryClosed),
			string(EnquiryQuoted): stringsOf(EnquiryClosed),
		})

	quotationLifecycle = newLifecycle(EntityQuotation,
		stringsOf(QuotationDraft, QuotationSent, QuotationApproved, QuotationRejected),
		map[string][]string{
			string(QuotationDraft):    stringsOf(QuotationSent, QuotationApproved, QuotationRejected),
			string(QuotationSent):     stringsOf(QuotationDraft, QuotationApproved, QuotationRejected),
			string(QuotationRejected): stringsOf(QuotationDraft),
		})

	orderLifecycle = forwardOnly(EntitySalesOrder, stringsOf(OrderStages...)...)

	purchaseLifecycle = newLifecycle(EntityPurchaseOrder,
		stringsOf(PurchaseDraft, PurchaseOrdered, PurchasePartiallyReceived, PurchaseReceived, PurchaseCancelled),
		map[string][]string{
			string(PurchaseDraft):             stringsOf(PurchaseOrdered, PurchaseCancelled),
			string(PurchaseOrdered):           stringsOf(PurchasePartiallyReceived, PurchaseReceived, PurchaseCancelled),
			string(PurchasePartiallyReceived): stringsOf(PurchaseReceived, PurchaseCancelled),
		})

	productionLifecycle = forwardOnly(EntityProductionJob, stringsOf(ProductionStages...)...)

	dispatchLifecycle = newLifecycle(EntityDispatch,
		stringsOf(DispatchScheduled, DispatchInTransit, DispatchDelivered),
		map[string][]string{
			string(DispatchScheduled): stringsOf(DispatchInTransit, DispatchDelivered),
			string(DispatchInTransit): stringsOf(DispatchDelivered),
		})

	installationLifecycle = newLifecycle(EntityInstallation,
		stringsOf(InstallationScheduled, InstallationInProgress, InstallationCompleted, InstallationDelayed),
		map[string][]string{
			string(InstallationScheduled):  stringsOf(InstallationInProgress, InstallationCompleted, InstallationDelayed),
			string(InstallationInProgress): stringsOf(InstallationCompleted, InstallationDelayed),
			string(InstallationDelayed):    stringsOf(InstallationScheduled, InstallationInProgress, InstallationCompleted),
		})

	warrantyLifecycle = newLifecycle(EntityWarrantyClaim,
		stringsOf(WarrantyOpen, WarrantyInProgress, WarrantyResolved, WarrantyClosed),
		map[string][]string{
			string(WarrantyOpen):       stringsOf(WarrantyInProgress, WarrantyResolved, WarrantyClosed),
			string(WarrantyInProgress): stringsOf(WarrantyResolved, WarrantyClosed),
			string(WarrantyResolved):   stringsOf(WarrantyInProgress, WarrantyClosed),
		})

	lifecycles = map[EntityType]Lifecycle{
		EntityEnquiry:       enquiryLifecycle,
		EntityQuotation:     quotationLifecycle,
		EntitySalesOrder:    orderLifecycle,
		EntityPurchaseOrder: purchaseLifecycle,
		EntityProductionJob: productionLifecycle,
		EntityDispatch:      dispatchLifecycle,
		EntityInstallation:  installationLifecycle,
		EntityWarrantyClaim: warrantyLifecycle,
	}
)

// LifecycleFor returns the transition table governing entity, if any.
func LifecycleFor(entity EntityType) (Lifecycle, bool) {
	l, ok := lifecycles[entity]
	return l, ok
}

// Stateful is implemented by entities whose status is governed by a Lifecycle.
type Stateful interface {
	LifecycleState() (entity EntityType, id string, state string)
}

// LifecycleState implements Stateful.
func (e Enquiry) LifecycleState() (EntityType, string, string) {
	return EntityEnquiry, e.ID, string(e.Status)
}

// Transition moves the enquiry to status.
func (e *Enquiry) Transition(to EnquiryStatus) error {
	if err := enquiryLifecycle.Check(e.ID, string(e.Status), string(to)); err != nil {
		return err
	}
	e.Status = to
	return nil
}

// LifecycleState implements Stateful.
func (q Quotation) LifecycleState() (EntityType, string, string) {
	return EntityQuotation, q.ID, string(q.Status)
}

// Transition moves the quotation to status. Approved is terminal, so a second
// approval fails.
func (q *Quotation) Transition(to QuotationStatus) error {
	if err := quotationLifecycle.Check(q.ID, string(q.Status), string(to)); err != nil {
		return err
	}
	q.Status = to
	return nil
}

// LifecycleState implements Stateful.
func (o SalesOrder) LifecycleState() (EntityType, string, string) {
	return EntitySalesOrder, o.ID, string(o.Status)
}

// Transition advances the order. Stages may be skipped but never revisited.
func (o *SalesOrder) Transition(to OrderStatus) error {
	if err := orderLifecycle.Check(o.ID, string(o.Status), string(to)); err != nil {
		return err
	}
	o.Status = to
	return nil
}

// Reached reports whether the order is at or past stage.
func (o SalesOrder) Reached(stage OrderStatus) bool {
	return o.Status == stage || orderLifecycle.Allows(string(stage), string(o.Status))
}

// LifecycleState implements Stateful.
func (p PurchaseOrder) LifecycleState() (EntityType, string, string) {
	return EntityPurchaseOrder, p.ID, string(p.Status)
}

// Transition moves the purchase order to status.
func (p *PurchaseOrder) Transition(to PurchaseOrderStatus) error {
	if err := purchaseLifecycle.Check(p.ID, string(p.Status), string(to)); err != nil {
		return err
	}
	p.Status = to
	return nil
}

// LifecycleState implements Stateful.
func (j ProductionJob) LifecycleState() (EntityType, string, string) {
	return EntityProductionJob, j.ID, string(j.Stage)
}

// Transition advances the job to a later stage.
func (j *ProductionJob) Transition(to ProductionStage) error {
	if err := productionLifecycle.Check(j.ID, string(j.Stage), string(to)); err != nil {
		return err
	}
	j.Stage = to
	return nil
}

// LifecycleState implements Stateful.
func (d Dispatch) LifecycleState() (EntityType, string, string) {
	return EntityDispatch, d.ID, string(d.Status)
}

// Transition moves the dispatch to status.
func (d *Dispatch) Transition(to DispatchStatus) error {
	if err := dispatchLifecycle.Check(d.ID, string(d.Status), string(to)); err != nil {
		return err
	}
	d.Status = to
	return nil
}

// LifecycleState implements Stateful.
func (i Installation) LifecycleState() (EntityType, string, string) {
	return EntityInstallation, i.ID, string(i.Status)
}

// Transition moves the installation to status.
func (i *Installation) Transition(to InstallationStatus) error {
	if err := installationLifecycle.Check(i.ID, string(i.Status), string(to)); err != nil {
		return err
	}
	i.Status = to
	return nil
}

// LifecycleState implements Stateful.
func (w WarrantyClaim) LifecycleState() (EntityType, string, string) {
	return EntityWarrantyClaim, w.ID, string(w.Status)
}

// Transition moves the claim to status.
func (w *WarrantyClaim) Transition(to WarrantyStatus) error {
	if err := warrantyLifecycle.Check(w.ID, string(w.Status), string(to)); err != nil {
		return err
	}
	w.Status = to
	return nil
}
