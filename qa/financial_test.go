package qa

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/finsight/model"
)

func financialFixture() *fakeStorage {
	ratioTable := &model.ExtractedTable{
		TableID:      "docd1_p4_t0",
		DocumentID:   "d1",
		Page:         4,
		Name:         model.TableRatios,
		Unit:         "times",
		ContextAbove: []string{"Annexure B", "Key Financial Ratios", "(for the quarter ended December 31, 2024)"},
		Method:       model.MethodBordered,
	}
	distTable := &model.ExtractedTable{
		TableID:      "docd1_p9_t0",
		DocumentID:   "d1",
		Page:         9,
		Name:         model.TableDistribution,
		Unit:         "₹ crores",
		ContextAbove: []string{"Distribution details"},
		Method:       model.MethodBordered,
	}
	otherDocTable := &model.ExtractedTable{
		TableID:    "docd2_p2_t0",
		DocumentID: "d2",
		Page:       2,
		Name:       model.TableRatios,
		Method:     model.MethodBorderless,
	}

	dscr := 1.45
	dpu := 5.25
	icr := 2.1
	return &fakeStorage{
		rows: []model.NormalizedRow{
			{ID: "r1", TableID: "docd1_p4_t0", RowLabel: "Debt Service Coverage Ratio",
				ColumnLabel: "Q3 FY25", Period: "Q3 FY25", RawValue: "1.45", Value: &dscr,
				Embedding: []float32{1, 0}},
			{ID: "r2", TableID: "docd1_p9_t0", RowLabel: "Distribution per unit",
				ColumnLabel: "Q3 FY25", Period: "Q3 FY25", RawValue: "5.25", Value: &dpu,
				Embedding: []float32{0.9, 0.436}},
			{ID: "r3", TableID: "docd2_p2_t0", RowLabel: "Interest Coverage Ratio",
				ColumnLabel: "FY24", Period: "FY24", RawValue: "2.1", Value: &icr,
				Embedding: []float32{0.8, 0.6}},
		},
		tables: map[string]*model.ExtractedTable{
			"docd1_p4_t0": ratioTable,
			"docd1_p9_t0": distTable,
			"docd2_p2_t0": otherDocTable,
		},
		documents: map[string]*model.Document{
			"d1": {ID: "d1", DisplayName: "Q3 FY25 Disclosure"},
			"d2": {ID: "d2", FileName: "annual.pdf"},
		},
	}
}

func TestAnswerFinancialHighConfidence(t *testing.T) {
	gen := &fakeGenerator{response: "ANSWER: The debt service coverage ratio is 1.45 times."}
	s := newTestService(financialFixture(), &fakeEmbedder{vec: []float32{1, 0}}, gen)

	answer := s.AnswerFinancial(context.Background(), "What is the debt service coverage ratio?", AskOptions{})

	assert.Equal(t, model.QuestionFinancial, answer.Type)
	assert.Equal(t, "The debt service coverage ratio is 1.45 times.", answer.Text)
	assert.Equal(t, model.ConfidenceHigh, answer.Confidence)

	require.NotEmpty(t, answer.Values)
	top := answer.Values[0]
	assert.Equal(t, "docd1_p4_t0", top.TableID)
	assert.Equal(t, model.TableRatios, top.TableName)
	assert.Equal(t, 4, top.Page)
	assert.Equal(t, "Debt Service Coverage Ratio", top.RowLabel)
	assert.Contains(t, top.RawText, "1.45")
	assert.Equal(t, map[string]string{"Q3 FY25": "1.45"}, top.Cells)
	assert.Equal(t, "times", top.Unit)
	assert.NotEmpty(t, top.Context)

	require.NotEmpty(t, answer.Citations)
	assert.Equal(t, "docd1_p4_t0", answer.Citations[0].TableID)
	assert.Equal(t, "Q3 FY25 Disclosure", answer.Citations[0].DocumentName)
}

func TestAnswerFinancialTypeFilterKeepsMatchingTables(t *testing.T) {
	gen := &fakeGenerator{response: "ANSWER: 1.45 times"}
	s := newTestService(financialFixture(), &fakeEmbedder{vec: []float32{1, 0}}, gen)

	// "coverage ratio" targets RATIOS, so the DISTRIBUTION row drops out.
	answer := s.AnswerFinancial(context.Background(), "What is the debt service coverage ratio?", AskOptions{})

	for _, v := range answer.Values {
		assert.Equal(t, model.TableRatios, v.TableName)
	}
}

func TestAnswerFinancialTypeFilterIsSoft(t *testing.T) {
	// The question targets NDCF but no NDCF rows exist; the filter must be
	// dropped instead of refusing.
	gen := &fakeGenerator{response: "ANSWER: something grounded"}
	s := newTestService(financialFixture(), &fakeEmbedder{vec: []float32{1, 0}}, gen)

	answer := s.AnswerFinancial(context.Background(), "What is the NDCF?", AskOptions{})

	assert.NotEqual(t, model.ConfidenceNotFound, answer.Confidence)
	assert.NotEmpty(t, answer.Values)
}

func TestAnswerFinancialDocumentFilterIsHard(t *testing.T) {
	gen := &fakeGenerator{response: "ANSWER: should not matter"}
	s := newTestService(financialFixture(), &fakeEmbedder{vec: []float32{1, 0}}, gen)

	answer := s.AnswerFinancial(context.Background(), "What is the DPU?", AskOptions{DocumentIDs: []string{"d9"}})

	assert.Equal(t, notAvailableAnswer, answer.Text)
	assert.Equal(t, model.ConfidenceNotFound, answer.Confidence)
}

func TestAnswerFinancialDocumentFilterNarrows(t *testing.T) {
	gen := &fakeGenerator{response: "ANSWER: 2.1 times"}
	s := newTestService(financialFixture(), &fakeEmbedder{vec: []float32{1, 0}}, gen)

	answer := s.AnswerFinancial(context.Background(), "What is the interest coverage ratio?", AskOptions{DocumentIDs: []string{"d2"}})

	require.NotEmpty(t, answer.Values)
	for _, c := range answer.Citations {
		assert.Equal(t, "d2", c.DocumentID)
	}
}

func TestAnswerFinancialEvidenceBlockContents(t *testing.T) {
	gen := &fakeGenerator{response: "ANSWER: ok"}
	s := newTestService(financialFixture(), &fakeEmbedder{vec: []float32{1, 0}}, gen)

	s.AnswerFinancial(context.Background(), "What is the debt service coverage ratio?", AskOptions{})

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "RATIOS, page 4")
	assert.Contains(t, prompt, "Debt Service Coverage Ratio | Q3 FY25 = 1.45")
	assert.Contains(t, prompt, "values in times")
	assert.Contains(t, prompt, "no arithmetic")
	assert.Contains(t, prompt, notAvailableAnswer)
	// Context is capped at the nearest lines above the table.
	assert.Contains(t, prompt, "Key Financial Ratios")
}

func TestAnswerFinancialRefusal(t *testing.T) {
	gen := &fakeGenerator{response: "ANSWER: Not available in the provided documents."}
	s := newTestService(financialFixture(), &fakeEmbedder{vec: []float32{1, 0}}, gen)

	answer := s.AnswerFinancial(context.Background(), "What was the FY2019 occupancy?", AskOptions{})

	assert.Equal(t, model.ConfidenceNotFound, answer.Confidence)
	assert.Empty(t, answer.Values)
}

func TestAnswerFinancialEmptyStore(t *testing.T) {
	gen := &fakeGenerator{response: "should not be called"}
	s := newTestService(&fakeStorage{}, &fakeEmbedder{vec: []float32{1, 0}}, gen)

	answer := s.AnswerFinancial(context.Background(), "What is the DSCR?", AskOptions{})

	assert.Equal(t, notAvailableAnswer, answer.Text)
	assert.Equal(t, model.ConfidenceNotFound, answer.Confidence)
	assert.Empty(t, gen.prompts)
}

func TestAnswerFinancialFaultsBecomeNotFound(t *testing.T) {
	tests := []struct {
		name string
		svc  *Service
	}{
		{"embedding error", newTestService(financialFixture(), &fakeEmbedder{err: errors.New("down")}, &fakeGenerator{})},
		{"store error", newTestService(&fakeStorage{rowsErr: errors.New("locked")}, &fakeEmbedder{vec: []float32{1, 0}}, &fakeGenerator{})},
		{"generation error", newTestService(financialFixture(), &fakeEmbedder{vec: []float32{1, 0}}, &fakeGenerator{err: errors.New("down")})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer := tt.svc.AnswerFinancial(context.Background(), "q", AskOptions{})
			assert.Equal(t, model.ConfidenceNotFound, answer.Confidence)
			assert.Equal(t, model.QuestionFinancial, answer.Type)
		})
	}
}
