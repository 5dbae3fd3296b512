// Package core defines the domain types shared by every layer of the genai
// client: prompts, generation parameters, results, and the capacity model.
// This package has no project imports -- it is the dependency root.
package core

import "encoding/json"

// MaxPrompts bounds the number of inputs carried by a single outbound
// request. No engine ever issues a request with more inputs than this.
const MaxPrompts = 20

// MaxRetriesGenerate is the retry budget for /generate requests.
const MaxRetriesGenerate = 3

// MaxRetriesTokenize is the retry budget for /tokenize requests.
const MaxRetriesTokenize = 3

// DefaultConcurrency is the default cap on in-flight requests for the
// async engine when the caller does not specify one.
const DefaultConcurrency = 5

// --- Request parameters ---

// LengthPenalty decays token scores by position.
type LengthPenalty struct {
	DecayFactor *float64 `json:"decay_factor,omitempty"`
	StartIndex  *int     `json:"start_index,omitempty"`
}

// ReturnOptions selects which extra fields the server attaches to each result.
type ReturnOptions struct {
	InputText       *bool `json:"input_text,omitempty"`
	GeneratedTokens *bool `json:"generated_tokens,omitempty"`
	InputTokens     *bool `json:"input_tokens,omitempty"`
	TokenLogprobs   *bool `json:"token_logprobs,omitempty"`
	TokenRanks      *bool `json:"token_ranks,omitempty"`
	TopNTokens      *int  `json:"top_n_tokens,omitempty"`
}

// ModerationTypeOptions configures one moderation detector.
type ModerationTypeOptions struct {
	Input     bool    `json:"input"`
	Output    bool    `json:"output"`
	Threshold float64 `json:"threshold"`
}

// ModerationsOptions configures the moderation detectors run against a request.
type ModerationsOptions struct {
	HAP          any `json:"hap,omitempty"`
	Stigma       any `json:"stigma,omitempty"`
	ImplicitHate any `json:"implicit_hate,omitempty"`
}

// GenerateParams mirrors the server's recognized generate parameters.
// Validation is the caller's concern; the core passes these through as-is.
//
// The wire field "return" is a deprecated alias for "return_options" (it is
// a reserved word in several client languages, which is why the service
// still advertises both). MarshalJSON prefers return_options on output and
// UnmarshalJSON accepts either.
type GenerateParams struct {
	DecodingMethod      string              `json:"decoding_method,omitempty"`
	LengthPenalty       *LengthPenalty      `json:"length_penalty,omitempty"`
	MaxNewTokens        *int                `json:"max_new_tokens,omitempty"`
	MinNewTokens        *int                `json:"min_new_tokens,omitempty"`
	RandomSeed          *int                `json:"random_seed,omitempty"`
	StopSequences       []string            `json:"stop_sequences,omitempty"`
	Stream              *bool               `json:"stream,omitempty"`
	Temperature         *float64            `json:"temperature,omitempty"`
	TimeLimit           *int                `json:"time_limit,omitempty"`
	TopK                *int                `json:"top_k,omitempty"`
	TopP                *float64            `json:"top_p,omitempty"`
	TypicalP            *float64            `json:"typical_p,omitempty"`
	RepetitionPenalty   *float64            `json:"repetition_penalty,omitempty"`
	TruncateInputTokens *int                `json:"truncate_input_tokens,omitempty"`
	BeamWidth           *int                `json:"beam_width,omitempty"`
	ReturnOptions       *ReturnOptions      `json:"-"`
	Moderations         *ModerationsOptions `json:"moderations,omitempty"`
	IncludeStopSequence *bool               `json:"include_stop_sequence,omitempty"`
}

// Clone returns a copy safe to mutate (e.g. forcing Stream) without racing
// a caller who holds the original and may still be reading it (§5).
func (p GenerateParams) Clone() GenerateParams {
	c := p
	if p.StopSequences != nil {
		c.StopSequences = append([]string(nil), p.StopSequences...)
	}
	return c
}

// WithStream returns a copy of p with Stream forced to the given value.
func (p GenerateParams) WithStream(stream bool) GenerateParams {
	c := p.Clone()
	c.Stream = &stream
	return c
}

// MarshalJSON emits "return_options" in preference to the deprecated
// "return" field, per the service's field-aliasing contract (spec §6).
func (p GenerateParams) MarshalJSON() ([]byte, error) {
	type alias GenerateParams
	out := struct {
		alias
		Return *ReturnOptions `json:"return_options,omitempty"`
	}{alias: alias(p), Return: p.ReturnOptions}
	return json.Marshal(out)
}

// UnmarshalJSON accepts either "return_options" or the deprecated "return"
// field, preferring "return_options" when both are present.
func (p *GenerateParams) UnmarshalJSON(data []byte) error {
	type alias GenerateParams
	aux := struct {
		*alias
		ReturnOptions *ReturnOptions `json:"return_options,omitempty"`
		Return        *ReturnOptions `json:"return,omitempty"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.ReturnOptions != nil {
		p.ReturnOptions = aux.ReturnOptions
	} else {
		p.ReturnOptions = aux.Return
	}
	return nil
}

// TokenParams configures a /tokenize request.
type TokenParams struct {
	ReturnTokens bool `json:"return_tokens"`
}

// ChatOptions carries the optional conversational-context fields for /chat.
type ChatOptions struct {
	ConversationID            string `json:"conversation_id,omitempty"`
	ParentID                  string `json:"parent_id,omitempty"`
	PromptID                  string `json:"prompt_id,omitempty"`
	TemplateID                string `json:"template_id,omitempty"`
	UseConversationParameters bool   `json:"use_conversation_parameters,omitempty"`
}

// --- Results ---

// Moderation is a verdict from one of the moderation detectors.
type Moderation struct {
	HAP          json.RawMessage `json:"hap,omitempty"`
	Stigma       json.RawMessage `json:"stigma,omitempty"`
	ImplicitHate json.RawMessage `json:"implicit_hate,omitempty"`
}

// GenerateResult is a single prompt's generation outcome.
//
// InputText is injected by the core from the request payload (§4.6); the
// server's own echo of it, if any, is discarded and never trusted.
type GenerateResult struct {
	InputText           string      `json:"input_text"`
	GeneratedText       string      `json:"generated_text"`
	StopReason          string      `json:"stop_reason,omitempty"`
	GeneratedTokenCount int         `json:"generated_token_count,omitempty"`
	InputTokenCount     int         `json:"input_token_count,omitempty"`
	Seed                int         `json:"seed,omitempty"`
	Moderation          *Moderation `json:"moderation,omitempty"`
}

// GenerateResponse is the decoded, non-streaming /generate response.
type GenerateResponse struct {
	ModelID string           `json:"model_id"`
	Results []GenerateResult `json:"results"`
}

// GenerateStreamResult is one caller-visible slice of streamed output:
// either an incremental text/token delta or a standalone moderation verdict.
type GenerateStreamResult struct {
	GeneratedText       string      `json:"generated_text,omitempty"`
	StopReason          string      `json:"stop_reason,omitempty"`
	GeneratedTokenCount int         `json:"generated_token_count,omitempty"`
	InputTokenCount     int         `json:"input_token_count,omitempty"`
	Seed                int         `json:"seed,omitempty"`
	Moderation          *Moderation `json:"moderation,omitempty"`
}

// ApiGenerateStreamResponse is one decoded SSE frame from a /generate stream.
type ApiGenerateStreamResponse struct {
	Moderation *Moderation            `json:"moderation,omitempty"`
	Results    []GenerateStreamResult `json:"results,omitempty"`
}

// TokenizeResult is a single prompt's tokenization outcome.
type TokenizeResult struct {
	InputText  string   `json:"input_text"`
	TokenCount int      `json:"token_count"`
	Tokens     []string `json:"tokens,omitempty"`
}

// TokenizeResponse is the decoded /tokenize response.
type TokenizeResponse struct {
	Results []TokenizeResult `json:"results"`
}

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the decoded, non-streaming /chat response.
type ChatResponse struct {
	ConversationID string           `json:"conversation_id,omitempty"`
	Results        []GenerateResult `json:"results"`
}

// ChatStreamResponse is one decoded SSE frame from a /chat stream.
type ChatStreamResponse struct {
	ConversationID string                 `json:"conversation_id,omitempty"`
	Moderation     *Moderation            `json:"moderation,omitempty"`
	Results        []GenerateStreamResult `json:"results,omitempty"`
}

// CapacitySnapshot is the server-advertised token budget at a point in time.
type CapacitySnapshot struct {
	TokenCapacity int64 `json:"tokenCapacity"`
	TokensUsed    int64 `json:"tokensUsed"`
}

// Remaining returns the unused portion of the token budget.
func (s CapacitySnapshot) Remaining() int64 {
	return s.TokenCapacity - s.TokensUsed
}

// ModelCard describes one model the service exposes.
type ModelCard struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Size       string `json:"size,omitempty"`
	TokenLimit int    `json:"token_limit,omitempty"`
}

// --- Tune lifecycle ---

// TuneHyperParams configures a tuning run. Zero values let the service pick
// its own defaults.
type TuneHyperParams struct {
	NumEpochs       *int     `json:"num_epochs,omitempty"`
	LearningRate    *float64 `json:"learning_rate,omitempty"`
	BatchSize       *int     `json:"batch_size,omitempty"`
	NumVirtualTokens *int    `json:"num_virtual_tokens,omitempty"`
}

// CreateTuneParams starts a tuning run against a base model.
type CreateTuneParams struct {
	Name                string          `json:"name"`
	ModelID             string          `json:"model_id"`
	MethodID            string          `json:"method_id"`
	TaskID              string          `json:"task_id"`
	TrainingFileIDs     []string        `json:"training_file_ids"`
	ValidationFileIDs   []string        `json:"validation_file_ids,omitempty"`
	Parameters          TuneHyperParams `json:"parameters,omitempty"`
}

// TuneResult is the service's record of one tuning run.
type TuneResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ModelID  string `json:"model_id"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

// TunesListResult is the decoded response from listing tuning runs.
type TunesListResult struct {
	Results []TuneResult `json:"results"`
}

// TuneAssetKind selects which artifact of a completed tune to download.
type TuneAssetKind string

const (
	TuneAssetEncoder TuneAssetKind = "encoder"
	TuneAssetLogs    TuneAssetKind = "logs"
)
