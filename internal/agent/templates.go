package agent

import (
	"time"

	"coffee-salon/internal/model"
)

// Reply is what a role contributes for one invocation.
type Reply struct {
	MessageType model.MessageType
	Content     string
	Metadata    map[string]any
}

// Template produces a role's reply. It must not depend on other roles' output.
type Template func(hasUserText bool, now time.Time) Reply

// DefaultRoles is the order roles speak in, and the set enabled when the
// caller does not choose one.
var DefaultRoles = []model.AgentRole{
	model.RoleHost,
	model.RoleExpert,
	model.RoleResearcher,
	model.RoleAnalyst,
}

// Templates maps each speaking role to its canned reply.
var Templates = map[model.AgentRole]Template{
	model.RoleHost:       hostReply,
	model.RoleExpert:     expertReply,
	model.RoleResearcher: researcherReply,
	model.RoleAnalyst:    analystReply,
}

func hostReply(hasUserText bool, now time.Time) Reply {
	content := "欢迎来到AI咖啡知识沙龙！我是主持人，将协调多位智能体专家为您服务。"
	if hasUserText {
		content = "感谢您的提问。我将协调专家团队为您提供全面的见解。"
	}
	return Reply{
		MessageType: model.TypeStatement,
		Content:     content,
		Metadata:    map[string]any{"timestamp": now.UTC().Format(time.RFC3339Nano)},
	}
}

func expertReply(hasUserText bool, _ time.Time) Reply {
	content := "作为领域专家，我将为本次沙龙提供专业见解和最佳实践分享。"
	if hasUserText {
		content = "基于我的专业知识，这个话题涉及多个维度。让我为您分析：\n1. 技术层面的创新点\n2. 实践应用的可行性\n3. 潜在的挑战与机遇"
	}
	return Reply{
		MessageType: model.TypeAnalysis,
		Content:     content,
		Metadata: map[string]any{
			"expertise_area":   "知识管理与AI应用",
			"confidence_level": 0.85,
		},
	}
}

func researcherReply(hasUserText bool, _ time.Time) Reply {
	content := "我将负责检索和整理相关文献、案例和数据，为讨论提供证据支撑。"
	if hasUserText {
		content = "我已检索相关资料，发现以下重要信息：\n• 相关研究表明...\n• 最新案例显示...\n• 业界专家观点..."
	}
	return Reply{
		MessageType: model.TypeEvidence,
		Content:     content,
		Metadata: map[string]any{
			"sources_count":    3,
			"evidence_quality": 0.8,
		},
	}
}

func analystReply(hasUserText bool, _ time.Time) Reply {
	content := "我将对讨论内容进行逻辑分析、事实核验，确保结论的可靠性。"
	if hasUserText {
		content = "从数据分析角度来看：\n✓ 论点的逻辑一致性较高\n✓ 证据覆盖率达标\n⚠ 建议补充更多实证数据"
	}
	return Reply{
		MessageType: model.TypeAnalysis,
		Content:     content,
		Metadata: map[string]any{
			"logic_score":       0.82,
			"evidence_coverage": 0.75,
		},
	}
}

// WelcomeReply is the host's opening line for a newly created salon.
func WelcomeReply(title string, protocol model.ProtocolType, now time.Time) Reply {
	return Reply{
		MessageType: model.TypeStatement,
		Content:     "欢迎来到《" + title + "》知识沙龙！我是主持人，本次沙龙将采用" + protocol.Label() + "进行。让我们开始精彩的知识旅程！",
		Metadata: map[string]any{
			"protocol_type": string(protocol),
			"session_start": now.UTC().Format(time.RFC3339Nano),
		},
	}
}
