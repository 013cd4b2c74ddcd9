package backend

import "context"

// Table names exposed by the hosted backend.
const (
	TableCustomers     = "customers"
	TableCustomerNotes = "customer_notes"
	TableAppointments  = "appointments"
)

// FlowParam is the callback query parameter that carries OAuthStart.State
// through the provider round trip.
const FlowParam = "flow"

// OAuthOptions configures a provider sign-in.
type OAuthOptions struct {
	Provider    string
	RedirectTo  string
	QueryParams map[string]string
}

// OAuthStart is the result of beginning a provider sign-in: the browser must be
// sent to URL, and State comes back on the callback.
type OAuthStart struct {
	Provider string
	URL      string
	State    string
}

// StateChangeFunc receives session change notifications. session is nil on sign out.
type StateChangeFunc func(event AuthEvent, session *Session)

// Subscription is a registered change listener.
type Subscription interface {
	Unsubscribe()
}

//go:generate mockgen -destination=mock/mock_client.go -package=mock . AuthClient,Subscription

// AuthClient is the session half of the remote backend.
type AuthClient interface {
	GetSession(ctx context.Context) (*Session, error)
	SignInWithOAuth(ctx context.Context, opts OAuthOptions) (OAuthStart, error)
	ExchangeCodeForSession(ctx context.Context, code, state string) (*Session, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(fn StateChangeFunc) Subscription
}

// Tables is the row half of the remote backend.
type Tables interface {
	// Select decodes the matching rows into dest. With q.Single, dest receives
	// one object and a missing row is an error.
	Select(ctx context.Context, q Query, dest any) error
	// Insert writes rows (a struct or a slice) and decodes the stored representation into dest.
	Insert(ctx context.Context, table string, rows any, dest any) error
	// Update patches the rows matching q with values and decodes the result into dest.
	Update(ctx context.Context, q Query, values any, dest any) error
	Delete(ctx context.Context, q Query) error
}
