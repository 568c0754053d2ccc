package orchestration

import "strings"

// Role identifies a specialized analysis agent
type Role string

const (
	RoleQueryGen  Role = "Q"
	RoleDetector  Role = "D"
	RoleKnowledge Role = "Knowledge"
	RoleReporter  Role = "Report"
	RoleDiagram   Role = "NanoBanana"
	RoleGeneral   Role = "General"
)

// Roles lists every known role
var Roles = []Role{RoleQueryGen, RoleDetector, RoleKnowledge, RoleReporter, RoleDiagram, RoleGeneral}

func (r Role) String() string {
	return string(r)
}

var instructions = map[Role]string{
	RoleQueryGen:  "You are Model Q, a Code Property Graph (CPG) Query Generator. Your task is to generate strict Joern CPGQL queries based on the user's vulnerability analysis request.",
	RoleDetector:  "You are Model D, a Vulnerability Detector and Patch Generator. Verify the vulnerability in the provided code slice and generate a secure patch.",
	RoleKnowledge: "You are the Knowledge Agent. Enrich the findings with CVE/CWE details.",
	RoleReporter:  "You are the Report Agent. Summarize the findings into a comprehensive vulnerability report.",
	RoleDiagram:   "You are the NanoBanana Agent. Generate a flowchart description or explanation of the data flow vulnerability.",
}

// InstructionFor returns the fixed preamble for role.
// General and unknown roles have no specialization and return "".
func InstructionFor(role Role) string {
	return instructions[role]
}

// stageRoles is the role sequence each stage activates, in output order
var stageRoles = map[Role][]Role{
	RoleQueryGen: {RoleQueryGen},
	RoleDetector: {RoleDetector, RoleKnowledge},
	RoleReporter: {RoleReporter},
	RoleDiagram:  {RoleDiagram},
	RoleGeneral:  {RoleGeneral},
}

var stageAliases = map[string]Role{
	"q":          RoleQueryGen,
	"querygen":   RoleQueryGen,
	"d":          RoleDetector,
	"detector":   RoleDetector,
	"report":     RoleReporter,
	"reporter":   RoleReporter,
	"nanobanana": RoleDiagram,
	"diagram":    RoleDiagram,
	"general":    RoleGeneral,
}

// ParseStage maps a caller-declared stage onto the role that selects its
// sequence. Anything unrecognized, including "Knowledge", falls back to General.
func ParseStage(stage string) Role {
	if role, ok := stageAliases[strings.ToLower(strings.TrimSpace(stage))]; ok {
		return role
	}
	return RoleGeneral
}

// RolesForStage returns a fresh copy of the ordered roles stage activates
func RolesForStage(stage string) []Role {
	return append([]Role(nil), stageRoles[ParseStage(stage)]...)
}
