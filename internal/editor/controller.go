package editor

import (
	"context"
	"log/slog"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
	"github.com/sandeepkv93/catalog-editor/internal/service"
)

// Result is what a surface needs to re-render after an action.
type Result struct {
	Session  Session
	Form     Form
	Page     Page
	Notice   *Notice
	Product  *domain.Product
	Declined bool
	Err      error
}

func (r Result) OK() bool { return r.Err == nil && !r.Declined }

// Controller runs the confirm, mutate, notify sequence shared by every
// interactive surface.
type Controller struct {
	svc      service.ProductService
	confirm  Confirmer
	notifier Notifier
	logger   *slog.Logger
}

func NewController(svc service.ProductService, confirm Confirmer, notifier Notifier, logger *slog.Logger) *Controller {
	if confirm == nil {
		confirm = Preconfirmed(false)
	}
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, Notice) {})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{svc: svc, confirm: confirm, notifier: notifier, logger: logger}
}

// WithConfirmer returns a copy that asks confirm instead.
func (c *Controller) WithConfirmer(confirm Confirmer) *Controller {
	cp := *c
	cp.confirm = confirm
	return &cp
}

// WithNotifier returns a copy that reports notices to n.
func (c *Controller) WithNotifier(n Notifier) *Controller {
	cp := *c
	cp.notifier = n
	return &cp
}

// NewSession starts a blank create form.
func (c *Controller) NewSession() (Session, Form) {
	return NewSession(), Form{}
}

// BeginEdit loads the product into a prefilled form bound to its id.
func (c *Controller) BeginEdit(ctx context.Context, id int64) Result {
	p, err := c.svc.GetByID(ctx, id)
	if err != nil {
		return c.fail(ctx, Result{Session: NewSession(), Page: PageProducts}, "edit", err)
	}
	return Result{Session: EditSession(id), Form: FormFromProduct(*p), Page: PageForm, Product: p}
}

// Submit creates or updates according to the session. On failure the form
// and session are kept so the user can correct the input.
func (c *Controller) Submit(ctx context.Context, sess Session, form Form) Result {
	var (
		p   *domain.Product
		err error
		msg string
	)
	if sess.Editing() {
		p, err = c.svc.Update(ctx, sess.TargetID, form.Input())
		msg = MsgUpdated
	} else {
		p, err = c.svc.Create(ctx, form.Input())
		msg = MsgAdded
	}
	if err != nil {
		return c.fail(ctx, Result{Session: sess, Form: form, Page: PageForm}, sess.Mode.String(), form.priceError(err))
	}
	return c.succeed(ctx, Result{Session: NewSession(), Page: PageProducts, Product: p}, msg)
}

func (c *Controller) Delete(ctx context.Context, id int64) Result {
	base := Result{Session: NewSession(), Page: PageProducts}
	ok, err := c.confirm.Confirm(ctx, PromptDelete)
	if err != nil {
		return c.fail(ctx, base, "delete", err)
	}
	if !ok {
		base.Declined = true
		return base
	}
	if err := c.svc.Delete(ctx, id); err != nil {
		return c.fail(ctx, base, "delete", err)
	}
	return c.succeed(ctx, base, MsgDeleted)
}

func (c *Controller) ClearAll(ctx context.Context) Result {
	base := Result{Session: NewSession(), Page: PageProducts}
	ok, err := c.confirm.Confirm(ctx, PromptClearAll)
	if err != nil {
		return c.fail(ctx, base, "clear", err)
	}
	if !ok {
		base.Declined = true
		return base
	}
	if err := c.svc.ClearAll(ctx); err != nil {
		return c.fail(ctx, base, "clear", err)
	}
	return c.succeed(ctx, base, MsgCleared)
}

func (c *Controller) succeed(ctx context.Context, res Result, msg string) Result {
	res.Notice = Success(msg)
	c.notifier.Notify(ctx, *res.Notice)
	return res
}

func (c *Controller) fail(ctx context.Context, res Result, action string, err error) Result {
	res.Err = err
	res.Notice = NoticeForError(err)
	if res.Notice.Message == MsgStoreFailure {
		c.logger.ErrorContext(ctx, "catalog action failed", "action", action, "error", err)
	}
	c.notifier.Notify(ctx, *res.Notice)
	return res
}
