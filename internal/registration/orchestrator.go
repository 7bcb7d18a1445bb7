package registration

import (
	"context"
	"strings"

	logrus "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"handa/internal/models"
)

// Orchestrator coordinates signup: identity record first, then the
// role-specific profile, then the profile link and session credential. With a
// TxRunner the first two commit or roll back together; without one a failed
// profile step is compensated by deleting the identity record.
type Orchestrator struct {
	stores   Stores
	tx       TxRunner
	notifier Notifier
	tokens   TokenIssuer
}

func New(stores Stores, tx TxRunner, notifier Notifier, tokens TokenIssuer) *Orchestrator {
	return &Orchestrator{stores: stores, tx: tx, notifier: notifier, tokens: tokens}
}

type Result struct {
	User      *models.User
	ProfileID uint
	Token     string
}

func (o *Orchestrator) Register(ctx context.Context, in Input) (*Result, error) {
	role, ok := ParseRole(in.Role)
	if !ok {
		return nil, failf(KindUnsupportedRole, "unknown role %q", in.Role)
	}
	if !role.Registerable() {
		return nil, failf(KindUnsupportedRole, "role %q cannot self-register", role)
	}

	plan, ferr := planFor(role, in)
	if ferr != nil {
		return nil, ferr
	}

	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "name is required"
	}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "email is required"
	}
	if in.Password == "" {
		fields["password"] = "password is required"
	}
	plan.validate(fields)
	if len(fields) > 0 {
		return nil, validationFailed(fields)
	}

	existing, err := o.stores.Identities.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, Duplicate("email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hash),
		Phone:    in.Phone,
		Role:     string(role),
		Active:   true,
	}

	var profileID uint
	if o.tx != nil {
		err = o.tx.RunInTx(ctx, func(s Stores) error {
			if err := s.Identities.Create(ctx, user); err != nil {
				return err
			}
			pid, err := plan.create(ctx, s, user)
			if err != nil {
				return err
			}
			profileID = pid
			return s.Identities.UpdateLinkedProfile(ctx, user.ID, pid)
		})
		if err != nil {
			return nil, err
		}
	} else {
		profileID, err = o.registerCompensating(ctx, plan, user)
		if err != nil {
			return nil, err
		}
	}
	user.ProfileID = profileID
	plan.attach(user)

	token, err := o.tokens.Issue(user.ID, role, profileID)
	if err != nil {
		return nil, err
	}

	plan.afterCommit(o)
	o.notify(user.ID, "Welcome", "Your "+string(role)+" account has been created.")

	return &Result{User: user, ProfileID: profileID, Token: token}, nil
}

// registerCompensating is the fallback for stores without transaction
// support: create the identity, attempt the profile, and delete the identity
// again if the profile step fails. A failed delete is a fatal inconsistency
// that is logged for manual reconciliation.
func (o *Orchestrator) registerCompensating(ctx context.Context, plan rolePlan, user *models.User) (uint, error) {
	if err := o.stores.Identities.Create(ctx, user); err != nil {
		return 0, err
	}
	profileID, err := plan.create(ctx, o.stores, user)
	if err != nil {
		return 0, o.compensate(ctx, user, err)
	}
	if err := o.stores.Identities.UpdateLinkedProfile(ctx, user.ID, profileID); err != nil {
		// The profile committed, so it has to be rolled back alongside the
		// identity record.
		if undoErr := plan.undo(ctx, o.stores); undoErr != nil {
			logrus.WithError(undoErr).WithFields(logrus.Fields{
				"identity_id": user.ID,
				"profile_id":  profileID,
			}).Error("profile cleanup failed during signup compensation")
		}
		return 0, o.compensate(ctx, user, err)
	}
	return profileID, nil
}

func (o *Orchestrator) compensate(ctx context.Context, user *models.User, cause error) error {
	if delErr := o.stores.Identities.DeleteByID(ctx, user.ID); delErr != nil {
		logrus.WithError(delErr).WithFields(logrus.Fields{
			"identity_id": user.ID,
			"email":       user.Email,
			"cause":       cause.Error(),
		}).Error("signup compensation failed; identity requires manual reconciliation")
		return failf(KindCompensationFailure,
			"profile creation failed (%v) and the identity record could not be removed", cause)
	}
	return cause
}

// notify sends a fire-and-forget message; failures are logged, never surfaced.
func (o *Orchestrator) notify(userID uint, subject, body string) {
	if o.notifier == nil || userID == 0 {
		return
	}
	if err := o.notifier.Send(userID, subject, body); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("notification send failed")
	}
}
