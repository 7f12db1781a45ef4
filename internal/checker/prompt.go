package checker

// DefaultInstructions is the analysis prompt sent ahead of the transcript
// when a request does not supply its own. The verdict classifier keys off
// the section labels this template asks for (per-claim VERDICT lines and
// the OVERALL ASSESSMENT block), so changes here and in internal/verdict
// move together.
const DefaultInstructions = `IDENTIFY KEY CLAIMS:
- Analyze the entire transcript to identify the most significant factual claims
- Focus on claims that are central to the content's main argument or repeated frequently
- Prioritize claims that could potentially misinform viewers if inaccurate
- Distinguish between factual assertions, opinions, and speculative statements

FORMAT BY CLAIM:
For each major claim identified, create a separate section with the following structure:

CLAIM #[number]: "[Direct quote with timestamp]"

  CREDIBILITY:
  - Assess accuracy based on current consensus knowledge
  - Rate reliability: Confirmed, Likely True, Uncertain, Likely False, Demonstrably False
  - Identify logical fallacies or misleading rhetorical techniques if present

  CONTEXT:
  - Provide alternative perspectives on controversial topics
  - Present relevant information that may have been omitted
  - Explain broader context necessary for accurate understanding
  - For uncertain/questionable claims only, recommend specific credible sources

OVERALL ASSESSMENT:
- Provide a balanced summary of the content's factual reliability
- Highlight the most significant factual issues identified
- Summarize key alternative viewpoints viewers should consider

RESPONSE LENGTH GUIDELINES (internal use only):
- Content under 3 minutes: Focus on 1 main claim, response under 400 words
- Content 3-10 minutes: Focus on 2-3 main claims, response under 800 words
- Content over 10 minutes: Focus on maximum of 5 main claims

Maintain neutrality and avoid political bias. Your goal is to help viewers make informed judgments, not promote any particular viewpoint.`
