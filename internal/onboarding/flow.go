// Package onboarding implements the five-step business registration flow.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nhanhataka-sys/replify-dashboard/internal/api"
	"github.com/nhanhataka-sys/replify-dashboard/internal/auth"
)

// Step is one stage of the onboarding wizard.
type Step int

const (
	StepAccount Step = iota
	StepDetails
	StepHours
	StepCatalogue
	StepWhatsApp
	StepDone
)

// Title returns the step caption shown in the progress header.
func (s Step) Title() string {
	switch s {
	case StepAccount:
		return "Create account"
	case StepDetails:
		return "Business details"
	case StepHours:
		return "Hours & location"
	case StepCatalogue:
		return "Catalogue"
	case StepWhatsApp:
		return "WhatsApp"
	default:
		return "Done"
	}
}

// StepCount is the number of wizard steps before the success screen.
const StepCount = 5

// ErrMissingCredentials rejects account creation with blank fields
// before any network call.
var ErrMissingCredentials = errors.New("email and password are required")

// Product is one mutable catalogue row. Rows with a blank name are
// dropped from the submission payload.
type Product struct {
	Name        string
	Price       string
	Size        string
	Description string
}

// RegisterAPI is the slice of the backend client the flow needs.
type RegisterAPI interface {
	RegisterBusiness(ctx context.Context, req *api.RegisterBusinessRequest) (string, error)
}

// Flow holds the wizard state and drives account creation and the
// final registration submission.
type Flow struct {
	auth auth.Client
	api  RegisterAPI

	step       Step
	userID     string
	businessID string

	// Step 0
	Email    string
	Password string

	// Step 1
	Name            string
	Description     string
	PaymentMethods  string
	DeliveryInfo    string
	GreetingMessage string
	AwayMessage     string

	// Step 2
	BusinessHours string
	Location      string

	// Step 3
	Catalogue []Product

	// Step 4
	PhoneNumberID  string
	AccessToken    string
	WhatsAppNumber string
}

// NewFlow creates a flow at the account step with one empty catalogue row.
func NewFlow(authClient auth.Client, registerAPI RegisterAPI) *Flow {
	return &Flow{
		auth:      authClient,
		api:       registerAPI,
		Catalogue: []Product{{}},
	}
}

// Step returns the current wizard step.
func (f *Flow) Step() Step {
	return f.step
}

// BusinessID returns the id produced by a successful submission.
func (f *Flow) BusinessID() string {
	return f.businessID
}

// Back moves to the previous step. Going back past the account step
// is not possible.
func (f *Flow) Back() {
	if f.step > StepAccount && f.step < StepDone {
		f.step--
	}
}

// Advance runs the current step's action and moves forward on
// success: the account step signs up, the WhatsApp step submits the
// registration, the steps in between just advance.
func (f *Flow) Advance(ctx context.Context) error {
	switch f.step {
	case StepAccount:
		return f.createAccount(ctx)
	case StepWhatsApp:
		return f.submit(ctx)
	case StepDone:
		return nil
	default:
		f.step++
		return nil
	}
}

func (f *Flow) createAccount(ctx context.Context) error {
	email := strings.TrimSpace(f.Email)
	if email == "" || f.Password == "" {
		return ErrMissingCredentials
	}

	user, err := f.auth.SignUp(ctx, email, f.Password)
	if err != nil {
		return err
	}

	f.userID = user.ID
	f.step = StepDetails
	return nil
}

func (f *Flow) submit(ctx context.Context) error {
	businessID, err := f.api.RegisterBusiness(ctx, f.buildRequest())
	if err != nil {
		return err
	}

	f.businessID = businessID
	f.step = StepDone
	return nil
}

// buildRequest assembles the registration payload, dropping catalogue
// rows with blank names.
func (f *Flow) buildRequest() *api.RegisterBusinessRequest {
	catalogue := make([]api.CatalogueItem, 0, len(f.Catalogue))
	for _, product := range f.Catalogue {
		if strings.TrimSpace(product.Name) == "" {
			continue
		}
		catalogue = append(catalogue, api.CatalogueItem{
			Name:        product.Name,
			Price:       product.Price,
			Size:        product.Size,
			Description: product.Description,
		})
	}

	return &api.RegisterBusinessRequest{
		UserID:          f.userID,
		Name:            f.Name,
		Description:     f.Description,
		PaymentMethods:  f.PaymentMethods,
		DeliveryInfo:    f.DeliveryInfo,
		GreetingMessage: f.GreetingMessage,
		AwayMessage:     f.AwayMessage,
		BusinessHours:   f.BusinessHours,
		Location:        f.Location,
		PhoneNumberID:   f.PhoneNumberID,
		AccessToken:     f.AccessToken,
		WhatsAppNumber:  f.WhatsAppNumber,
		Catalogue:       catalogue,
	}
}

// AddProduct appends an empty catalogue row.
func (f *Flow) AddProduct() {
	f.Catalogue = append(f.Catalogue, Product{})
}

// RemoveProduct deletes the catalogue row at index, ignoring
// out-of-range indexes.
func (f *Flow) RemoveProduct(index int) {
	if index < 0 || index >= len(f.Catalogue) {
		return
	}
	f.Catalogue = append(f.Catalogue[:index], f.Catalogue[index+1:]...)
}

// Progress returns "Step N of M — Title" for the progress header.
func (f *Flow) Progress() string {
	step := f.step
	if step >= StepDone {
		step = StepWhatsApp
	}
	return fmt.Sprintf("Step %d of %d — %s", int(step)+1, StepCount, step.Title())
}

// ErrorMessage maps a flow error onto the text shown to the user.
// Auth messages and backend validation details pass through verbatim;
// anything else gets the generic retry message.
func ErrorMessage(err error) string {
	if errors.Is(err, ErrMissingCredentials) {
		return "Email and password are required."
	}
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "Something went wrong. Please try again."
}
