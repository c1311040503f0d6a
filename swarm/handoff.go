package swarm

import (
	"context"
	"fmt"
	"sync"

	"github.com/effective-security/agentcore/pkg/schema"
	"github.com/effective-security/agentcore/tools"
	"github.com/invopop/jsonschema"
)

// HandoffToolName is the name of the tool injected into every agent of the swarm.
const HandoffToolName = "handoff_to_agent"

// HandoffRequest is the input of the handoff tool.
type HandoffRequest struct {
	AgentName string         `json:"agent_name" jsonschema:"description=Name of the agent to hand off to."`
	Message   string         `json:"message" jsonschema:"description=Message explaining what needs to be done and why you are handing off."`
	Context   map[string]any `json:"context,omitempty" jsonschema:"description=Additional context to share with the next agent."`
}

type handoff struct {
	from    string
	to      string
	message string
}

// runState is shared by the handoff tools of one run.
type runState struct {
	lock    sync.Mutex
	pending *handoff
	shared  map[string]map[string]any
}

func newRunState() *runState {
	return &runState{
		shared: make(map[string]map[string]any),
	}
}

func (st *runState) take() *handoff {
	st.lock.Lock()
	defer st.lock.Unlock()
	h := st.pending
	st.pending = nil
	return h
}

func (st *runState) sharedContext() map[string]map[string]any {
	st.lock.Lock()
	defer st.lock.Unlock()
	res := make(map[string]map[string]any, len(st.shared))
	for k, v := range st.shared {
		res[k] = v
	}
	return res
}

// handoffTool records the handoff request of the current agent.
type handoffTool struct {
	swarm  *Swarm
	state  *runState
	from   string
	params *jsonschema.Schema
}

var _ tools.Tool[HandoffRequest, string] = (*handoffTool)(nil)

func newHandoffTool(s *Swarm, st *runState, from string) *handoffTool {
	return &handoffTool{
		swarm:  s,
		state:  st,
		from:   from,
		params: schema.For[HandoffRequest](),
	}
}

func (t *handoffTool) Name() string {
	return HandoffToolName
}

func (t *handoffTool) Description() string {
	return "Transfer control to another agent in the swarm for specialized help."
}

func (t *handoffTool) Parameters() *jsonschema.Schema {
	return t.params
}

func (t *handoffTool) Run(_ context.Context, req *HandoffRequest) (*string, error) {
	var res string
	switch {
	case t.swarm.find(req.AgentName) == nil:
		res = fmt.Sprintf("Error: Agent '%s' not found in swarm", req.AgentName)
	case req.AgentName == t.from:
		res = "Error: can not hand off to yourself"
	default:
		t.state.lock.Lock()
		t.state.pending = &handoff{
			from:    t.from,
			to:      req.AgentName,
			message: req.Message,
		}
		if len(req.Context) > 0 {
			t.state.shared[t.from] = req.Context
		}
		t.state.lock.Unlock()
		res = fmt.Sprintf("Handing off to %s: %s", req.AgentName, req.Message)
	}
	return &res, nil
}

func (t *handoffTool) Call(ctx context.Context, input string) (string, error) {
	req, err := tools.DecodeInput[HandoffRequest](input)
	if err != nil {
		return "", err
	}
	res, err := t.Run(ctx, req)
	if err != nil {
		return "", err
	}
	return *res, nil
}
