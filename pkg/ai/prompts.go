package ai

// StrategyPrompt classifies a free-text question into one of the two
// retrieval modes. The model must answer with a structured object.
const StrategyPrompt = `
# Task Context
You are an analyst for animated-series scripts. Given the user's question,
choose the retrieval strategy best suited to answer it.

# Detailed Task Description & Rules
Pick exactly one of the following modes:

FAST: direct retrieval
- The question targets one specific thing and needs a quick, direct answer
- The question already names the entity or event it is about
- A single lookup of closely matching material is enough

ASSOCIATE: associative retrieval
- The question is about how several entities relate to each other
- Answering requires connecting facts across scenes
- The question explores consequences, motives or indirect connections

# Output Formatting
Return a JSON object:
{
  "strategy": "FAST" | "ASSOCIATE"
}
`

// EntityPrompt extracts the core entities of one scene script for graph
// construction. Kept strict on purpose: fewer, stronger entities beat noise.
const EntityPrompt = `
# Task Context
You are building a knowledge graph from an anime episode script. Extract the
core entities from the given scene.

# Detailed Task Description & Rules
- Select only the 2 to 4 most central, most frequently referenced entities
- If the scene carries no meaningful subject matter, return an empty list
- Expand abbreviated names to their full form
- Entities must be concrete, independent noun forms; avoid vague concepts
- Trim surrounding whitespace from every entity string

# Output Formatting
Return a JSON object:
{
  "entities": ["entity1", "entity2"]
}
`

// RelationPrompt extracts directed relations among a known entity set from
// one scene script.
const RelationPrompt = `
# Task Context
You are building a knowledge graph from an anime episode script. Given a list
of known entities, extract the relations between them from the scene text.

# Detailed Task Description & Rules
- Both source and target must come from the given entity list
- Each relation should capture the complete context and logic connecting the
  pair; avoid isolated, meaningless links
- At most one relation per entity pair
- Not every pair is related; if no valid relation exists, return an empty list
- Trim surrounding whitespace from entity and relation strings

# Output Formatting
Return a JSON object:
{
  "relations": [
    {"source": "entity1", "target": "entity2", "relation": "description"}
  ]
}
`

// MentionPrompt extracts the entity mentions from a user question during
// associative retrieval.
const MentionPrompt = `
# Task Context
You are matching a user question against a knowledge graph of anime
characters, objects and concepts. List the entities the question mentions.

# Detailed Task Description & Rules
- Extract every person, object or concept the question refers to
- Use the surface form from the question, trimmed of whitespace
- Return an empty list if the question mentions no concrete entity

# Output Formatting
Return a JSON object:
{
  "entities": ["mention1", "mention2"]
}
`

// AnswerPrompt is the final synthesis template. The first verb matters: the
// model must refuse rather than fabricate when the context cannot support an
// answer.
const AnswerPrompt = `
# Task Context
Answer the question based on the known script material below.

# Background Data
Known scenes:
%s

# Detailed Task Description & Rules
Answer the following question in detail. If the answer cannot be inferred
from the known material, say you cannot determine it from known information.
Do not pretend to know.

Question:
%s

# Output Formatting
Return a JSON object:
{
  "answer": "<short insight answer>",
  "explanation": "<detailed insight explanation>"
}
`

// SummaryPrompt condenses retrieved material around one question when the
// assembled context exceeds the prompt token budget.
const SummaryPrompt = `
# Task Context
Given this question: %s

Summarize the key points of the following material that could answer the
question. Keep concrete names, actions and motives; drop unrelated lines.

# Background Data
%s
`

// CommunityReportPrompt writes a structured report for one graph community,
// given the relation phrases connecting its entities.
const CommunityReportPrompt = `
# Task Context
You are an assistant performing information discovery over a network of
entities extracted from an anime's episode scripts. Write a comprehensive
report of one community of connected entities.

# Input Format
Each line is one relation:
<Source Entity> -> <Relation> -> <Target Entity>

# Real Data
%s

# Detailed Task Description & Rules
The report includes:
- TITLE: short but specific, naming representative entities
- SUMMARY: how the community's entities relate and what matters about them
- IMPACT SEVERITY RATING: float 0-10 scoring the community's importance
- RATING EXPLANATION: one sentence
- DETAILED FINDINGS: 5-10 insights, each a short summary plus explanation
  grounded strictly in the given relations. Do not make anything up.

# Output Formatting
Return a JSON object:
{
  "title": "<report title>",
  "summary": "<executive summary>",
  "rating": <impact severity rating>,
  "rating_explanation": "<rating explanation>",
  "findings": [
    {"summary": "<insight summary>", "explanation": "<insight explanation>"}
  ]
}
`
