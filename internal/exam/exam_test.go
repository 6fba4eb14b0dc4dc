package exam

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/model"
	"github.com/pavelanni/questionbank/internal/store"
)

type fakeGen struct {
	mu        sync.Mutex
	calls     int
	exemplars [][]model.Question
	failTopic string
	delay     func(req model.GenerationRequest) time.Duration
}

func (f *fakeGen) Generate(ctx context.Context, req model.GenerationRequest, exemplars []model.Question) (model.GenerationResult, error) {
	f.mu.Lock()
	f.calls++
	f.exemplars = append(f.exemplars, exemplars)
	f.mu.Unlock()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(req)):
		case <-ctx.Done():
			return model.GenerationResult{}, ctx.Err()
		}
	}
	if f.failTopic != "" && strings.HasSuffix(req.Topic, f.failTopic) {
		return model.GenerationResult{}, apperr.Internal("AIGenerationFailed", errors.New("model unavailable"))
	}
	return model.GenerationResult{
		Statement:     "Generated: " + req.Topic,
		CorrectAnswer: "A",
		Alternatives:  model.Alternatives{{Text: "A"}, {Text: "B"}},
		Explanation:   "because",
	}, nil
}

type fixture struct {
	st    *store.Store
	svc   *Service
	gen   *fakeGen
	prof  model.User
	other model.User
	math  model.Discipline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	f := &fixture{st: st, gen: &fakeGen{}}
	f.prof = createUser(t, st, "prof")
	f.other = createUser(t, st, "other")
	f.math, err = st.CreateDiscipline(ctx, model.Discipline{Name: "Math"})
	if err != nil {
		t.Fatalf("CreateDiscipline: %v", err)
	}
	f.svc = NewService(FromStore(st), f.gen, Options{Concurrency: 3, Rand: rand.New(rand.NewPCG(1, 2))})
	return f
}

func createUser(t *testing.T, st *store.Store, name string) model.User {
	t.Helper()
	u, err := st.CreateUser(context.Background(), model.User{
		Name: name, Email: name + "@example.com", PasswordHash: "h",
		Role: model.UserRoleProfessor, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func (f *fixture) question(t *testing.T, creatorID, statement string, difficulty model.Difficulty) model.Question {
	t.Helper()
	q, err := f.st.CreateQuestion(context.Background(), model.Question{
		Statement: statement, CorrectAnswer: "A", Difficulty: difficulty,
		Type: model.TypeObjective, DisciplineID: &f.math.ID, CreatorID: creatorID,
	})
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	return q
}

func (f *fixture) examCount(t *testing.T) int {
	t.Helper()
	n, err := f.st.CountExams(context.Background(), model.ExamFilter{})
	if err != nil {
		t.Fatalf("CountExams: %v", err)
	}
	return n
}

func (f *fixture) questionCount(t *testing.T) int {
	t.Helper()
	qs, err := f.st.FindQuestions(context.Background(), model.QuestionFilter{})
	if err != nil {
		t.Fatalf("FindQuestions: %v", err)
	}
	return len(qs)
}

func assertKind(t *testing.T, err error, kind apperr.Kind, msgID string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	e := apperr.As(err)
	if e.Kind != kind || (msgID != "" && e.MsgID != msgID) {
		t.Fatalf("expected %v/%s, got %v/%s (%v)", kind, msgID, e.Kind, e.MsgID, err)
	}
}

func assertDenseOrder(t *testing.T, d *model.ExamDetail) {
	t.Helper()
	for i, item := range d.Questions {
		if item.Order != i+1 {
			t.Fatalf("order at %d = %d, want %d", i, item.Order, i+1)
		}
	}
}

func TestCreateMixedSources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q1 := f.question(t, f.prof.ID, "Manual pick", model.DifficultyEasy)
	f.question(t, f.prof.ID, "Bank two", model.DifficultyEasy)
	f.question(t, f.prof.ID, "Bank three", model.DifficultyEasy)

	detail, err := f.svc.Create(ctx, f.prof.ID, model.CreateExamInput{
		Title:       "Mixed",
		QuestionIDs: []string{q1.ID},
		NewQuestions: []model.NewQuestion{{
			Statement: "X", CorrectAnswer: "A",
			Difficulty: model.DifficultyEasy, Type: model.TypeObjective,
		}},
		GenerateConfig: &model.ExamGenerationConfig{DisciplineID: f.math.ID, Count: 1},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(detail.Questions) != 3 {
		t.Fatalf("expected 3 linked questions, got %d", len(detail.Questions))
	}
	assertDenseOrder(t, detail)
	if detail.Questions[0].Question.ID != q1.ID {
		t.Errorf("manual question should be first, got %q", detail.Questions[0].Question.Statement)
	}
	if detail.Questions[1].Question.Statement != "X" {
		t.Errorf("new question should be second, got %q", detail.Questions[1].Question.Statement)
	}
	third := detail.Questions[2].Question
	if third.ID == q1.ID || third.Statement == "X" {
		t.Errorf("sampled question duplicated an earlier source: %q", third.Statement)
	}
	if detail.DisciplineID == nil || *detail.DisciplineID != f.math.ID {
		t.Errorf("expected discipline inferred from config, got %v", detail.DisciplineID)
	}
	if detail.Questions[1].Question.DisciplineName != "Math" {
		t.Errorf("new question should inherit the exam discipline, got %q", detail.Questions[1].Question.DisciplineName)
	}
	if detail.Visibility != model.VisibilityPrivate || detail.CreatorName != "prof" {
		t.Errorf("unexpected exam metadata %+v", detail.Exam)
	}
}

func TestCreateRollsBack(t *testing.T) {
	tests := []struct {
		name  string
		input func(f *fixture) model.CreateExamInput
		kind  apperr.Kind
		msgID string
	}{
		{
			name: "unknown manual id",
			input: func(f *fixture) model.CreateExamInput {
				return model.CreateExamInput{Title: "Broken", QuestionIDs: []string{"nonexistent-id"}}
			},
			kind: apperr.KindNotFound, msgID: "QuestionsNotFound",
		},
		{
			name: "insufficient sample",
			input: func(f *fixture) model.CreateExamInput {
				return model.CreateExamInput{
					Title:          "Broken",
					NewQuestions:   []model.NewQuestion{{Statement: "Authored", CorrectAnswer: "A"}},
					GenerateConfig: &model.ExamGenerationConfig{DisciplineID: f.math.ID, Count: 10},
				}
			},
			kind: apperr.KindBadRequest, msgID: "InsufficientQuestions",
		},
		{
			name: "missing count",
			input: func(f *fixture) model.CreateExamInput {
				return model.CreateExamInput{Title: "Broken", GenerateConfig: &model.ExamGenerationConfig{DisciplineID: f.math.ID}}
			},
			kind: apperr.KindBadRequest, msgID: "GenerationCountRequired",
		},
		{
			name: "missing ai items",
			input: func(f *fixture) model.CreateExamInput {
				return model.CreateExamInput{Title: "Broken", GenerateConfig: &model.ExamGenerationConfig{UseAI: true, DisciplineID: f.math.ID}}
			},
			kind: apperr.KindBadRequest, msgID: "GenerationItemsRequired",
		},
		{
			name: "unknown ai discipline",
			input: func(f *fixture) model.CreateExamInput {
				return model.CreateExamInput{Title: "Broken", GenerateConfig: &model.ExamGenerationConfig{
					UseAI: true, DisciplineID: "00000000-0000-0000-0000-000000000000",
					Items: []model.GenerationItem{{Topic: "sums", Count: 1, Difficulty: model.DifficultyEasy}},
				}}
			},
			kind: apperr.KindNotFound, msgID: "DisciplineNotFound",
		},
		{
			name: "unknown base question",
			input: func(f *fixture) model.CreateExamInput {
				return model.CreateExamInput{Title: "Broken", GenerateConfig: &model.ExamGenerationConfig{
					UseAI: true, DisciplineID: f.math.ID,
					Items: []model.GenerationItem{{Topic: "sums", Count: 1, Difficulty: model.DifficultyEasy, BaseQuestionIDs: []string{"gone"}}},
				}}
			},
			kind: apperr.KindNotFound, msgID: "BaseQuestionsNotFound",
		},
		{
			name: "generation failure after authored question",
			input: func(f *fixture) model.CreateExamInput {
				f.gen.failTopic = "broken topic"
				return model.CreateExamInput{
					Title:        "Broken",
					NewQuestions: []model.NewQuestion{{Statement: "Authored", CorrectAnswer: "A"}},
					GenerateConfig: &model.ExamGenerationConfig{
						UseAI: true, DisciplineID: f.math.ID,
						Items: []model.GenerationItem{
							{Topic: "fine topic", Count: 2, Difficulty: model.DifficultyEasy},
							{Topic: "broken topic", Count: 1, Difficulty: model.DifficultyEasy},
						},
					},
				}
			},
			kind: apperr.KindInternal, msgID: "ExamCreateFailed",
		},
		{
			name: "no questions at all",
			input: func(f *fixture) model.CreateExamInput {
				return model.CreateExamInput{Title: "Broken"}
			},
			kind: apperr.KindBadRequest, msgID: "ExamEmpty",
		},
		{
			name: "authored question with unknown discipline",
			input: func(f *fixture) model.CreateExamInput {
				missing := "00000000-0000-0000-0000-000000000000"
				return model.CreateExamInput{Title: "Broken", NewQuestions: []model.NewQuestion{
					{Statement: "Authored", CorrectAnswer: "A", DisciplineID: &missing},
				}}
			},
			kind: apperr.KindNotFound, msgID: "DisciplineNotFound",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.question(t, f.prof.ID, "Bank one", model.DifficultyEasy)
			f.question(t, f.prof.ID, "Bank two", model.DifficultyEasy)
			before := f.questionCount(t)

			_, err := f.svc.Create(context.Background(), f.prof.ID, tt.input(f))
			assertKind(t, err, tt.kind, tt.msgID)

			if n := f.examCount(t); n != 0 {
				t.Errorf("expected exam shell to be rolled back, found %d exams", n)
			}
			if n := f.questionCount(t); n != before {
				t.Errorf("expected %d questions after rollback, found %d", before, n)
			}
		})
	}
}

// deleteFails makes the compensating delete fail.
type deleteFails struct {
	Repository
}

func (deleteFails) DeleteExam(context.Context, string) error {
	return errors.New("database is locked")
}

func TestRollbackFailureKeepsOriginalError(t *testing.T) {
	f := newFixture(t)
	svc := NewService(deleteFails{FromStore(f.st)}, f.gen, Options{})

	_, err := svc.Create(context.Background(), f.prof.ID, model.CreateExamInput{
		Title: "Broken", QuestionIDs: []string{"nonexistent-id"},
	})
	assertKind(t, err, apperr.KindNotFound, "QuestionsNotFound")
}

func TestCreateAIKeepsIssuanceOrder(t *testing.T) {
	f := newFixture(t)
	base := f.question(t, f.prof.ID, "Reference question", model.DifficultyHard)
	// Earlier slots finish last.
	f.gen.delay = func(req model.GenerationRequest) time.Duration {
		if strings.HasSuffix(req.Topic, "first") {
			return 30 * time.Millisecond
		}
		return 0
	}

	detail, err := f.svc.Create(context.Background(), f.prof.ID, model.CreateExamInput{
		Title: "AI exam",
		GenerateConfig: &model.ExamGenerationConfig{
			UseAI: true, DisciplineID: f.math.ID, GeneralPrompt: "keep it short",
			Items: []model.GenerationItem{
				{Topic: "first", Count: 2, Difficulty: model.DifficultyHard, Type: model.TypeTrueFalse, BaseQuestionIDs: []string{base.ID}},
				{Topic: "second", Count: 1, Difficulty: model.DifficultyEasy},
			},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.gen.calls != 3 {
		t.Errorf("expected 3 generation calls, got %d", f.gen.calls)
	}
	want := []string{"Generated: Math: first", "Generated: Math: first", "Generated: Math: second"}
	if len(detail.Questions) != len(want) {
		t.Fatalf("expected %d questions, got %d", len(want), len(detail.Questions))
	}
	assertDenseOrder(t, detail)
	for i, w := range want {
		if got := detail.Questions[i].Question.Statement; got != w {
			t.Errorf("question %d = %q, want %q", i+1, got, w)
		}
	}
	first := detail.Questions[0].Question
	if first.Type != model.TypeTrueFalse || first.Difficulty != model.DifficultyHard || first.CreatorID != f.prof.ID {
		t.Errorf("generated question lost its item settings: %+v", first)
	}
	if second := detail.Questions[2].Question; second.Type != model.TypeObjective {
		t.Errorf("expected OBJECTIVE default, got %s", second.Type)
	}

	withBase := 0
	for _, ex := range f.gen.exemplars {
		if len(ex) == 1 && ex[0].ID == base.ID {
			withBase++
		}
	}
	if withBase != 2 {
		t.Errorf("expected base question passed to 2 calls, got %d", withBase)
	}
}

func TestSamplingHonoursFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.question(t, f.prof.ID, "Mine easy", model.DifficultyEasy)
	f.question(t, f.other.ID, "Theirs easy", model.DifficultyEasy)
	f.question(t, f.prof.ID, "Mine hard", model.DifficultyHard)

	detail, err := f.svc.Create(ctx, f.prof.ID, model.CreateExamInput{
		Title: "Sampled",
		GenerateConfig: &model.ExamGenerationConfig{
			DisciplineID: f.math.ID, Difficulty: model.DifficultyEasy, Count: 1, OnlyMyQuestions: true,
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(detail.Questions) != 1 || detail.Questions[0].Question.ID != mine.ID {
		t.Errorf("expected only %q, got %+v", mine.Statement, detail.Questions)
	}

	_, err = f.svc.Create(ctx, f.prof.ID, model.CreateExamInput{
		Title:          "Too many",
		GenerateConfig: &model.ExamGenerationConfig{DisciplineID: f.math.ID, Count: 4},
	})
	assertKind(t, err, apperr.KindBadRequest, "InsufficientQuestions")
	if e := apperr.As(err); e.Data["Available"] != 3 || e.Data["Requested"] != 4 {
		t.Errorf("unexpected error data %v", e.Data)
	}
}

func TestShuffleSharedRand(t *testing.T) {
	s := NewService(nil, nil, Options{Rand: rand.New(rand.NewPCG(3, 4))})
	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := []string{"a", "b", "c", "d", "e", "f"}
			s.shuffle(out)
			results[i] = out
		}()
	}
	wg.Wait()
	for i, out := range results {
		seen := map[string]bool{}
		for _, id := range out {
			seen[id] = true
		}
		if len(seen) != 6 {
			t.Errorf("shuffle %d is not a permutation: %v", i, out)
		}
	}
}

func TestCreateClearsAlternativesOfOpenTypes(t *testing.T) {
	f := newFixture(t)
	detail, err := f.svc.Create(context.Background(), f.prof.ID, model.CreateExamInput{
		Title: "Open answers",
		NewQuestions: []model.NewQuestion{{
			Statement: "Explain", CorrectAnswer: "x", Difficulty: model.DifficultyEasy, Type: model.TypeDiscursive,
			Alternatives: model.Alternatives{{Text: "stray"}},
		}},
		GenerateConfig: &model.ExamGenerationConfig{
			UseAI: true, DisciplineID: f.math.ID,
			Items: []model.GenerationItem{{Topic: "sketch", Difficulty: model.DifficultyEasy, Type: model.TypeDrawing}},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(detail.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(detail.Questions))
	}
	for _, eq := range detail.Questions {
		if len(eq.Question.Alternatives) != 0 {
			t.Errorf("%s question kept alternatives %v", eq.Question.Type, eq.Question.Alternatives)
		}
	}
}

func TestShuffleIsSeedable(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	run := func() []string {
		s := NewService(nil, nil, Options{Rand: rand.New(rand.NewPCG(7, 7))})
		out := append([]string(nil), ids...)
		s.shuffle(out)
		return out
	}
	first, second := run(), run()
	if strings.Join(first, "") != strings.Join(second, "") {
		t.Errorf("same seed gave %v and %v", first, second)
	}
	seen := map[string]bool{}
	for _, id := range first {
		seen[id] = true
	}
	if len(seen) != len(ids) {
		t.Errorf("shuffle lost elements: %v", first)
	}
}

func newExam(t *testing.T, f *fixture, visibility model.Visibility, qs ...model.Question) *model.ExamDetail {
	t.Helper()
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	d, err := f.svc.Create(context.Background(), f.prof.ID, model.CreateExamInput{
		Title: "Exam " + string(visibility), Visibility: visibility, QuestionIDs: ids,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return d
}

func TestUpdateReordersAtomically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q1 := f.question(t, f.prof.ID, "One", model.DifficultyEasy)
	q2 := f.question(t, f.prof.ID, "Two", model.DifficultyEasy)
	q3 := f.question(t, f.prof.ID, "Three", model.DifficultyEasy)
	e := newExam(t, f, model.VisibilityPrivate, q1, q2)

	order := []string{q3.ID, q1.ID}
	title := "Renamed"
	var results [][]string
	for range 2 {
		d, err := f.svc.Update(ctx, f.prof.ID, e.ID, model.UpdateExamInput{Title: &title, QuestionIDs: &order})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		assertDenseOrder(t, d)
		var got []string
		for _, item := range d.Questions {
			got = append(got, item.Question.ID)
		}
		results = append(results, got)
		if d.Title != "Renamed" {
			t.Errorf("title not updated: %q", d.Title)
		}
	}
	if strings.Join(results[0], ",") != strings.Join(order, ",") || strings.Join(results[1], ",") != strings.Join(order, ",") {
		t.Errorf("expected %v twice, got %v", order, results)
	}

	empty := []string{}
	_, err := f.svc.Update(ctx, f.prof.ID, e.ID, model.UpdateExamInput{QuestionIDs: &empty})
	assertKind(t, err, apperr.KindBadRequest, "ExamCannotBeEmpty")

	bad := []string{q2.ID, "missing"}
	_, err = f.svc.Update(ctx, f.prof.ID, e.ID, model.UpdateExamInput{QuestionIDs: &bad})
	assertKind(t, err, apperr.KindNotFound, "QuestionsNotFound")

	d, _ := f.svc.FindOne(ctx, f.prof.ID, e.ID)
	if len(d.Questions) != 2 || d.Questions[0].Question.ID != q3.ID {
		t.Errorf("failed updates must keep the previous links, got %+v", d.Questions)
	}

	unchanged, err := f.svc.Update(ctx, f.prof.ID, e.ID, model.UpdateExamInput{})
	if err != nil {
		t.Fatalf("empty Update: %v", err)
	}
	if !unchanged.UpdatedAt.Equal(d.UpdatedAt) || len(unchanged.Questions) != 2 {
		t.Errorf("an empty update must not touch the exam, got %+v", unchanged)
	}
}

func TestOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.question(t, f.prof.ID, "Only", model.DifficultyEasy)
	e := newExam(t, f, model.VisibilityPublic, q)

	title := "Hijacked"
	empty := []string{}
	_, err := f.svc.Update(ctx, f.other.ID, e.ID, model.UpdateExamInput{Title: &title, QuestionIDs: &empty})
	assertKind(t, err, apperr.KindForbidden, "ExamEditForbidden")

	err = f.svc.Remove(ctx, f.other.ID, e.ID)
	assertKind(t, err, apperr.KindForbidden, "ExamDeleteForbidden")

	d, err := f.svc.FindOne(ctx, f.other.ID, e.ID)
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if d.Title != e.Title || len(d.Questions) != 1 {
		t.Errorf("forbidden calls mutated the exam: %+v", d)
	}

	_, err = f.svc.Update(ctx, f.prof.ID, "missing", model.UpdateExamInput{Title: &title})
	assertKind(t, err, apperr.KindNotFound, "ExamNotFound")

	if err := f.svc.Remove(ctx, f.prof.ID, e.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	_, err = f.svc.FindOne(ctx, f.prof.ID, e.ID)
	assertKind(t, err, apperr.KindNotFound, "ExamNotFound")
}

func TestListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.question(t, f.prof.ID, "Only", model.DifficultyEasy)
	pub := newExam(t, f, model.VisibilityPublic, q)
	priv := newExam(t, f, model.VisibilityPrivate, q)

	all, err := f.svc.FindAll(ctx, ListQuery{Visibility: model.VisibilityPrivate})
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if all.Meta.Total != 1 || all.Data[0].ID != pub.ID {
		t.Errorf("public listing must ignore the visibility filter, got %+v", all)
	}
	if all.Meta.Page != 1 || all.Meta.PerPage != 10 || all.Meta.LastPage != 1 {
		t.Errorf("unexpected meta %+v", all.Meta)
	}

	mine, _ := f.svc.FindMine(ctx, f.prof.ID, ListQuery{Visibility: model.VisibilityPrivate})
	if mine.Meta.Total != 1 || mine.Data[0].ID != priv.ID {
		t.Errorf("expected only the private exam, got %+v", mine)
	}
	mine, _ = f.svc.FindMine(ctx, f.prof.ID, ListQuery{Search: "exam"})
	if mine.Meta.Total != 2 {
		t.Errorf("expected 2 exams matching search, got %d", mine.Meta.Total)
	}

	title := "ÁLGEBRA Linear"
	if _, err := f.svc.Update(ctx, f.prof.ID, pub.ID, model.UpdateExamInput{Title: &title}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	for _, search := range []string{"ÁLGEBRA", "álgebra", "linear", "LINEAR"} {
		page, err := f.svc.FindAll(ctx, ListQuery{Search: search})
		if err != nil {
			t.Fatalf("FindAll(%q): %v", search, err)
		}
		if page.Meta.Total != 1 {
			t.Errorf("search %q: expected 1 exam, got %d", search, page.Meta.Total)
		}
	}

	theirs, _ := f.svc.FindMine(ctx, f.other.ID, ListQuery{})
	if theirs.Meta.Total != 0 || theirs.Data == nil {
		t.Errorf("expected an empty, non-nil page, got %+v", theirs)
	}

	_, err = f.svc.FindOne(ctx, f.other.ID, priv.ID)
	assertKind(t, err, apperr.KindNotFound, "ExamNotFound")
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := model.ExamGenerationConfig{
		UseAI: true, DisciplineID: f.math.ID,
		Items: []model.GenerationItem{{Topic: "fractions", Count: 2, Difficulty: model.DifficultyMedium}},
	}

	got, err := f.svc.Preview(ctx, cfg)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(got) != 2 || got[0].Topic != "Math: fractions" || got[0].Type != model.TypeObjective || got[0].Explanation != "because" {
		t.Errorf("unexpected preview %+v", got)
	}
	if f.examCount(t) != 0 || f.questionCount(t) != 0 {
		t.Error("preview must not persist anything")
	}

	got, err = f.svc.Preview(ctx, model.ExamGenerationConfig{
		UseAI: true, DisciplineID: f.math.ID,
		Items: []model.GenerationItem{{Topic: "decimals", Difficulty: model.DifficultyEasy}},
	})
	if err != nil {
		t.Fatalf("Preview without count: %v", err)
	}
	if len(got) != 1 || got[0].Topic != "Math: decimals" {
		t.Errorf("an item without count must generate one question, got %+v", got)
	}

	f.gen.failTopic = "fractions"
	_, err = f.svc.Preview(ctx, cfg)
	assertKind(t, err, apperr.KindInternal, "PreviewFailed")

	_, err = f.svc.Preview(ctx, model.ExamGenerationConfig{DisciplineID: f.math.ID, Count: 1})
	assertKind(t, err, apperr.KindBadRequest, "PreviewRequiresAI")

	cfg.Items = nil
	_, err = f.svc.Preview(ctx, cfg)
	assertKind(t, err, apperr.KindBadRequest, "GenerationItemsRequired")

	cfg.DisciplineID = "00000000-0000-0000-0000-000000000000"
	cfg.Items = []model.GenerationItem{{Topic: "fractions", Count: 1, Difficulty: model.DifficultyEasy}}
	_, err = f.svc.Preview(ctx, cfg)
	assertKind(t, err, apperr.KindNotFound, "DisciplineNotFound")
}

func TestGenerateQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.question(t, f.prof.ID, "Reference", model.DifficultyEasy)

	res, err := f.svc.GenerateQuestion(ctx, model.GenerationRequest{
		Topic: "Algebra", Difficulty: model.DifficultyEasy, BaseQuestionIDs: []string{base.ID, base.ID},
	})
	if err != nil {
		t.Fatalf("GenerateQuestion: %v", err)
	}
	if res.Statement != "Generated: Algebra" {
		t.Errorf("unexpected result %+v", res)
	}
	if len(f.gen.exemplars) != 1 || len(f.gen.exemplars[0]) != 1 {
		t.Errorf("expected the base question once, got %v", f.gen.exemplars)
	}

	_, err = f.svc.GenerateQuestion(ctx, model.GenerationRequest{Topic: "Algebra", BaseQuestionIDs: []string{"missing"}})
	assertKind(t, err, apperr.KindNotFound, "BaseQuestionsNotFound")

	f.gen.failTopic = "Algebra"
	_, err = f.svc.GenerateQuestion(ctx, model.GenerationRequest{Topic: "Algebra"})
	assertKind(t, err, apperr.KindInternal, "AIGenerationFailed")
}
