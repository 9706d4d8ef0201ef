package query

import (
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/fieldsuite/fieldops/internal/access"
)

// Field names understood by the storage layer's predicate compiler. Fields
// prefixed with "customer." resolve through the owning customer row.
const (
	FieldStatus            = "status"
	FieldType              = "type"
	FieldPriority          = "priority"
	FieldAssignedTo        = "assigned_to"
	FieldCustomerID        = "customer_id"
	FieldCreatedBy         = "created_by"
	FieldWorkOrderID       = "work_order_id"
	FieldCustomerCreatedBy = "customer.created_by"

	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldLocation     = "location"
	FieldCustomerName = "customer.name"
	FieldName         = "name"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldAddress      = "address"
	FieldNumber       = "number"
)

// SearchGroup is a case-insensitive substring match of Term against any of
// Fields. The group is ANDed with the predicate's equality conditions while
// its own fields combine with OR.
type SearchGroup struct {
	Fields []string
	Term   string
}

// Predicate is the storage-agnostic result of a filter builder. Conditions
// are equality constraints keyed by field name, so the chaining order of
// builder calls cannot affect the built value. A Predicate is request-scoped:
// built once, handed to the store, discarded.
type Predicate struct {
	Conditions map[string]any
	Search     *SearchGroup
}

// Equal reports whether two predicates describe the same constraints.
func (p Predicate) Equal(other Predicate) bool {
	if !maps.Equal(p.Conditions, other.Conditions) {
		return false
	}
	if (p.Search == nil) != (other.Search == nil) {
		return false
	}
	if p.Search == nil {
		return true
	}
	return p.Search.Term == other.Search.Term && slices.Equal(p.Search.Fields, other.Search.Fields)
}

// filter is the builder state shared by all entity filters.
type filter struct {
	scope        access.Scope
	conds        map[string]any
	searchFields []string
	searchTerm   string
}

func newFilter(role access.Role, actorID uuid.UUID, searchFields []string) filter {
	return filter{
		scope:        access.ScopeFor(role, actorID),
		conds:        make(map[string]any),
		searchFields: searchFields,
	}
}

func (f *filter) set(field string, value any) {
	f.conds[field] = value
}

func (f *filter) build() Predicate {
	p := Predicate{Conditions: maps.Clone(f.conds)}
	if f.searchTerm != "" {
		p.Search = &SearchGroup{Fields: slices.Clone(f.searchFields), Term: f.searchTerm}
	}
	return p
}

// WorkOrderFilter incrementally builds a role-scoped predicate over work
// orders. Every listing and stats query must call WithRoleScope before
// executing; the scope self-applies to the caller's identity so that
// under-privileged roles structurally cannot see out-of-scope rows.
type WorkOrderFilter struct {
	filter
}

func NewWorkOrderFilter(role access.Role, actorID uuid.UUID) *WorkOrderFilter {
	return &WorkOrderFilter{filter: newFilter(role, actorID, []string{
		FieldTitle, FieldDescription, FieldLocation, FieldCustomerName,
	})}
}

// WithRoleScope applies the caller's visibility rule. Clients see work orders
// of customers they created, field staff see work orders assigned to them,
// managerial roles see the whole tenant.
func (f *WorkOrderFilter) WithRoleScope() *WorkOrderFilter {
	switch f.scope.Kind {
	case access.ScopeAssigned:
		f.set(FieldAssignedTo, f.scope.ActorID)
	case access.ScopeOwnCustomers:
		f.set(FieldCustomerCreatedBy, f.scope.ActorID)
	case access.ScopeAll:
	}
	return f
}

func (f *WorkOrderFilter) WithStatus(status string) *WorkOrderFilter {
	if status != "" {
		f.set(FieldStatus, status)
	}
	return f
}

func (f *WorkOrderFilter) WithType(t string) *WorkOrderFilter {
	if t != "" {
		f.set(FieldType, t)
	}
	return f
}

func (f *WorkOrderFilter) WithPriority(p string) *WorkOrderFilter {
	if p != "" {
		f.set(FieldPriority, p)
	}
	return f
}

func (f *WorkOrderFilter) WithAssignee(id *uuid.UUID) *WorkOrderFilter {
	if id != nil && *id != uuid.Nil {
		f.set(FieldAssignedTo, *id)
	}
	return f
}

func (f *WorkOrderFilter) WithCustomer(id *uuid.UUID) *WorkOrderFilter {
	if id != nil && *id != uuid.Nil {
		f.set(FieldCustomerID, *id)
	}
	return f
}

// WithSearch adds a case-insensitive substring OR-match across title,
// description, location and customer name. Empty terms are a no-op.
func (f *WorkOrderFilter) WithSearch(term string) *WorkOrderFilter {
	if term != "" {
		f.searchTerm = term
	}
	return f
}

// Build returns the accumulated predicate. It is idempotent and does not
// reset the builder.
func (f *WorkOrderFilter) Build() Predicate { return f.build() }

// CustomerFilter builds a role-scoped predicate over customers.
type CustomerFilter struct {
	filter
}

func NewCustomerFilter(role access.Role, actorID uuid.UUID) *CustomerFilter {
	return &CustomerFilter{filter: newFilter(role, actorID, []string{
		FieldName, FieldEmail, FieldPhone, FieldAddress,
	})}
}

// WithRoleScope applies the caller's visibility rule. Clients see only the
// customer records they created, field staff see customers assigned to them.
func (f *CustomerFilter) WithRoleScope() *CustomerFilter {
	switch f.scope.Kind {
	case access.ScopeAssigned:
		f.set(FieldAssignedTo, f.scope.ActorID)
	case access.ScopeOwnCustomers:
		f.set(FieldCreatedBy, f.scope.ActorID)
	case access.ScopeAll:
	}
	return f
}

func (f *CustomerFilter) WithAssignee(id *uuid.UUID) *CustomerFilter {
	if id != nil && *id != uuid.Nil {
		f.set(FieldAssignedTo, *id)
	}
	return f
}

func (f *CustomerFilter) WithSearch(term string) *CustomerFilter {
	if term != "" {
		f.searchTerm = term
	}
	return f
}

func (f *CustomerFilter) Build() Predicate { return f.build() }

// InvoiceFilter builds a role-scoped predicate over invoices. Invoices follow
// the same visibility rule as work orders: clients see invoices billed to
// customers they created, field staff see invoices of work orders assigned to
// them.
type InvoiceFilter struct {
	filter
}

func NewInvoiceFilter(role access.Role, actorID uuid.UUID) *InvoiceFilter {
	return &InvoiceFilter{filter: newFilter(role, actorID, []string{
		FieldNumber, FieldCustomerName,
	})}
}

func (f *InvoiceFilter) WithRoleScope() *InvoiceFilter {
	switch f.scope.Kind {
	case access.ScopeAssigned:
		f.set(FieldAssignedTo, f.scope.ActorID)
	case access.ScopeOwnCustomers:
		f.set(FieldCustomerCreatedBy, f.scope.ActorID)
	case access.ScopeAll:
	}
	return f
}

func (f *InvoiceFilter) WithStatus(status string) *InvoiceFilter {
	if status != "" {
		f.set(FieldStatus, status)
	}
	return f
}

func (f *InvoiceFilter) WithCustomer(id *uuid.UUID) *InvoiceFilter {
	if id != nil && *id != uuid.Nil {
		f.set(FieldCustomerID, *id)
	}
	return f
}

func (f *InvoiceFilter) WithWorkOrder(id *uuid.UUID) *InvoiceFilter {
	if id != nil && *id != uuid.Nil {
		f.set(FieldWorkOrderID, *id)
	}
	return f
}

func (f *InvoiceFilter) WithSearch(term string) *InvoiceFilter {
	if term != "" {
		f.searchTerm = term
	}
	return f
}

func (f *InvoiceFilter) Build() Predicate { return f.build() }
