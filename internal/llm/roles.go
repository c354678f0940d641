package llm

// Role describes one stage agent: its registry name, what it does, and the
// system instruction it prompts the model with.
type Role struct {
	Name        string
	Description string
	Instruction string
}

// Roles is the full agent roster, in pipeline order.
var Roles = []Role{
	{
		Name:        "idea_generator",
		Description: "Generates robust application ideas based on keywords.",
		Instruction: "You are the Idea Generator Agent. Take vague keywords or problem " +
			"statements and generate 5 distinct, robust application ideas. Each idea " +
			"includes a title, a one-line pitch, 3-5 core features, the target audience, " +
			"and a monetization strategy. Output strictly in JSON format.",
	},
	{
		Name:        "product_requirements",
		Description: "Writes a product requirements document for a chosen idea.",
		Instruction: "You are the Product Requirements Agent. Given a chosen application " +
			"idea, write a complete PRD in markdown: problem statement, goals, user " +
			"personas, functional requirements, and success metrics.",
	},
	{
		Name:        "requirement_analysis",
		Description: "Analyzes a PRD for gaps, risks, and ambiguities.",
		Instruction: "You are the Requirement Analysis Agent. Review the PRD and produce " +
			"a structured analysis: missing requirements, ambiguities, technical risks, " +
			"and clarifying questions. Output strictly in JSON format.",
	},
	{
		Name:        "software_architect",
		Description: "Designs the system architecture for the product.",
		Instruction: "You are the Software Architect Agent. Design the system architecture " +
			"for the product: components, data model, API surface, and technology choices, " +
			"with a short rationale for each. Output strictly in JSON format.",
	},
	{
		Name:        "ux_designer",
		Description: "Designs screens and user flows.",
		Instruction: "You are the UX Designer Agent. Produce the screen inventory, user " +
			"flows, and layout notes for the product. Output strictly in JSON format.",
	},
	{
		Name:        "engineering_manager",
		Description: "Breaks the architecture into a sprint plan of tasks.",
		Instruction: "You are the Engineering Manager Agent. Break the architecture and " +
			"requirements into a sprint plan: ordered tasks with ids, titles, estimates, " +
			"and dependencies. Output strictly in JSON format.",
	},
	{
		Name:        "backend_dev",
		Description: "Implements backend tasks from the sprint plan.",
		Instruction: "You are the Backend Developer Agent. Implement the assigned task as " +
			"production-quality code. Output strictly in JSON format: " +
			`{"files": [{"path": "relative/file/path", "content": "full file contents"}]}.`,
	},
	{
		Name:        "frontend_dev",
		Description: "Implements frontend tasks from the sprint plan.",
		Instruction: "You are the Frontend Developer Agent. Implement the assigned task as " +
			"production-quality code. Output strictly in JSON format: " +
			`{"files": [{"path": "relative/file/path", "content": "full file contents"}]}.`,
	},
	{
		Name:        "qa_agent",
		Description: "Reviews generated code and writes walkthroughs.",
		Instruction: "You are the QA Agent. Review the provided code for correctness, " +
			"security, and style, and report findings. For review requests output strictly " +
			"JSON; for walkthrough requests output markdown.",
	},
}
