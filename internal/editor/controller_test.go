package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
	"github.com/sandeepkv93/catalog-editor/internal/repository"
	"github.com/sandeepkv93/catalog-editor/internal/service"
	servicegomock "github.com/sandeepkv93/catalog-editor/internal/service/gomock"
)

type recordingNotifier struct{ notices []Notice }

func (r *recordingNotifier) Notify(_ context.Context, n Notice) { r.notices = append(r.notices, n) }

type promptRecorder struct {
	answer  bool
	prompts []string
}

func (p *promptRecorder) Confirm(_ context.Context, prompt string) (bool, error) {
	p.prompts = append(p.prompts, prompt)
	return p.answer, nil
}

func newControllerForTest(t *testing.T, answer bool) (*Controller, *service.CatalogService, *recordingNotifier, *promptRecorder) {
	t.Helper()
	repo := repository.NewProductRepository(repository.NewMemorySlot(), "products")
	ms := int64(1700000000000)
	svc := service.NewCatalogService(repo, nil).WithClock(func() time.Time {
		ms++
		return time.UnixMilli(ms)
	})
	notes := &recordingNotifier{}
	prompts := &promptRecorder{answer: answer}
	return NewController(svc, prompts, notes, nil), svc, notes, prompts
}

func validForm() Form {
	return Form{Title: "Mug", Price: "9.99", Image: "https://img/mug.png", Category: "Home"}
}

func TestControllerSubmitCreate(t *testing.T) {
	c, svc, notes, _ := newControllerForTest(t, true)
	sess, form := c.NewSession()
	if sess.Editing() || form != (Form{}) {
		t.Fatalf("expected blank create session, got %+v %+v", sess, form)
	}

	res := c.Submit(context.Background(), sess, validForm())
	if !res.OK() || res.Page != PageProducts || res.Session.Editing() {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Notice == nil || res.Notice.Message != MsgAdded || res.Notice.Kind != NoticeSuccess {
		t.Fatalf("unexpected notice %+v", res.Notice)
	}
	if res.Form != (Form{}) {
		t.Fatalf("form should reset after success, got %+v", res.Form)
	}
	if len(notes.notices) != 1 {
		t.Fatalf("expected one notice, got %v", notes.notices)
	}
	all, _ := svc.All(context.Background())
	if len(all) != 1 || all[0].Price != 9.99 {
		t.Fatalf("unexpected catalog %+v", all)
	}
}

func TestControllerSubmitValidationKeepsForm(t *testing.T) {
	c, svc, notes, _ := newControllerForTest(t, true)
	tests := []struct {
		name string
		form Form
		msg  string
	}{
		{name: "missing title", form: Form{Price: "1", Image: "i", Category: "c"}, msg: MsgRequiredFields},
		{name: "missing price", form: Form{Title: "t", Image: "i", Category: "c"}, msg: MsgRequiredFields},
		{name: "blank price", form: Form{Title: "t", Price: "  ", Image: "i", Category: "c"}, msg: MsgRequiredFields},
		{name: "negative price", form: Form{Title: "t", Price: "-2", Image: "i", Category: "c"}, msg: MsgInvalidPrice},
		{name: "bad price", form: Form{Title: "t", Price: "abc", Image: "i", Category: "c"}, msg: MsgInvalidPrice},
		{name: "missing category", form: Form{Title: "t", Price: "1", Image: "i"}, msg: MsgRequiredFields},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := c.Submit(context.Background(), NewSession(), tc.form)
			if res.OK() || res.Page != PageForm || res.Form != tc.form {
				t.Fatalf("expected form retained on page, got %+v", res)
			}
			if res.Notice == nil || res.Notice.Message != tc.msg || res.Notice.Kind != NoticeError {
				t.Fatalf("unexpected notice %+v", res.Notice)
			}
		})
	}
	all, _ := svc.All(context.Background())
	if len(all) != 0 || len(notes.notices) != len(tests) {
		t.Fatalf("invalid submits must not write, catalog=%d notices=%d", len(all), len(notes.notices))
	}
}

func TestControllerEditFlow(t *testing.T) {
	c, svc, _, _ := newControllerForTest(t, true)
	created := c.Submit(context.Background(), NewSession(), validForm()).Product

	res := c.BeginEdit(context.Background(), created.ID)
	if !res.Session.Editing() || res.Session.TargetID != created.ID || res.Page != PageForm {
		t.Fatalf("unexpected edit session %+v", res)
	}
	if res.Form.Title != "Mug" || res.Form.Price != "9.99" || res.Session.SubmitLabel() != "Update Product" {
		t.Fatalf("form not prefilled: %+v", res.Form)
	}

	form := res.Form
	form.Title = "Big Mug"
	out := c.Submit(context.Background(), res.Session, form)
	if !out.OK() || out.Notice.Message != MsgUpdated || out.Session.Editing() {
		t.Fatalf("unexpected update result %+v", out)
	}
	got, _ := svc.GetByID(context.Background(), created.ID)
	if got.Title != "Big Mug" {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestControllerEditOfDeletedProductReportsNotFound(t *testing.T) {
	c, svc, _, _ := newControllerForTest(t, true)
	created := c.Submit(context.Background(), NewSession(), validForm()).Product
	sess := c.BeginEdit(context.Background(), created.ID).Session

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	res := c.Submit(context.Background(), sess, validForm())
	if !errors.Is(res.Err, repository.ErrProductNotFound) || res.Notice.Message != MsgNotFound {
		t.Fatalf("expected not found notice, got %+v", res)
	}
	all, _ := svc.All(context.Background())
	if len(all) != 0 {
		t.Fatalf("update miss must not recreate the product: %+v", all)
	}

	if res := c.BeginEdit(context.Background(), created.ID); res.Notice == nil || res.Page != PageProducts {
		t.Fatalf("expected error notice for missing edit target, got %+v", res)
	}
}

func TestControllerDeleteAsksFirst(t *testing.T) {
	c, svc, notes, prompts := newControllerForTest(t, false)
	created := c.WithConfirmer(Preconfirmed(true)).Submit(context.Background(), NewSession(), validForm()).Product
	notes.notices = nil

	res := c.Delete(context.Background(), created.ID)
	if !res.Declined || res.Notice != nil || len(notes.notices) != 0 {
		t.Fatalf("declined delete must be silent, got %+v", res)
	}
	if len(prompts.prompts) != 1 || prompts.prompts[0] != PromptDelete {
		t.Fatalf("unexpected prompts %v", prompts.prompts)
	}
	if all, _ := svc.All(context.Background()); len(all) != 1 {
		t.Fatal("declined delete must not change catalog")
	}

	res = c.WithConfirmer(Preconfirmed(true)).Delete(context.Background(), created.ID)
	if !res.OK() || res.Notice.Message != MsgDeleted {
		t.Fatalf("unexpected delete result %+v", res)
	}
	if all, _ := svc.All(context.Background()); len(all) != 0 {
		t.Fatal("confirmed delete should remove product")
	}

	res = c.WithConfirmer(Preconfirmed(true)).Delete(context.Background(), created.ID)
	if res.Notice == nil || res.Notice.Message != MsgNotFound {
		t.Fatalf("expected not found notice, got %+v", res.Notice)
	}
}

func TestControllerClearAll(t *testing.T) {
	c, svc, _, prompts := newControllerForTest(t, true)
	c.Submit(context.Background(), NewSession(), validForm())
	c.Submit(context.Background(), NewSession(), validForm())

	res := c.ClearAll(context.Background())
	if !res.OK() || res.Notice.Message != MsgCleared {
		t.Fatalf("unexpected clear result %+v", res)
	}
	if prompts.prompts[len(prompts.prompts)-1] != PromptClearAll {
		t.Fatalf("unexpected prompt %v", prompts.prompts)
	}
	if all, _ := svc.All(context.Background()); len(all) != 0 {
		t.Fatalf("expected empty catalog, got %+v", all)
	}
}

func TestControllerStoreFailureUsesGenericNotice(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	svc.EXPECT().ClearAll(gomock.Any()).Return(errors.New("disk full"))
	svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, in service.ProductInput) (*domain.Product, error) {
		if in.Title != "Mug" || in.Price != 9.99 {
			t.Fatalf("unexpected input %+v", in)
		}
		return nil, errors.New("disk full")
	})

	c := NewController(svc, Preconfirmed(true), nil, nil)
	if res := c.ClearAll(context.Background()); res.Notice == nil || res.Notice.Message != MsgStoreFailure {
		t.Fatalf("expected generic failure notice, got %+v", res.Notice)
	}
	if res := c.Submit(context.Background(), NewSession(), validForm()); res.Page != PageForm || res.Notice.Kind != NoticeError {
		t.Fatalf("expected error result on form page, got %+v", res)
	}
}
