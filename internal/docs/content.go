package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with taigagen",
		Content: topicQuickstart,
	},
	{
		Name:    "sources",
		Title:   "Task Sources",
		Summary: "What git history, roadmap and code review produce",
		Content: topicSources,
	},
	{
		Name:    "roadmap",
		Title:   "Roadmap Format",
		Summary: "How phases, features and action items are recognized",
		Content: topicRoadmap,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "Run config schema, credentials, and defaults",
		Content: topicConfig,
	},
	{
		Name:    "tracker",
		Title:   "Taiga Submission",
		Summary: "Statuses, assignees, pacing, reports and re-runs",
		Content: topicTracker,
	},
	{
		Name:    "bridge",
		Title:   "Tool Bridge",
		Summary: "Tools served by 'taigagen bridge' over stdio",
		Content: topicBridge,
	},
}

const topicQuickstart = `Quick Start
===========

1. Provide Taiga credentials, either exported or in a .env file:

    TAIGA_API_URL=https://api.taiga.io/api/v1
    TAIGA_USERNAME=you
    TAIGA_PASSWORD=secret

2. Look at what taigagen sees in your project:

    taigagen discover ./my-app

3. Run the interactive wizard. It asks for the project directory,
   which sources to use and which Taiga project to fill (or to create
   a new one), then previews the items before creating anything:

    taigagen

4. For repeatable runs, write a config file and run it:

    taigagen init
    taigagen run --config taigagen.yaml --dry-run
    taigagen run --config taigagen.yaml --report run.json

5. Give every unassigned story an owner:

    taigagen assign
`

const topicSources = `Task Sources
============

Sources run in a fixed order: git history, roadmap, code review. Each
produces epics, user stories and tasks; a source that fails is reported
and the others still run.

GIT HISTORY
  Reads the commit log of all branches and the branch list.
  - Epics: one per development area (authentication, core features,
    database, API, frontend, testing, performance, deployment, bug
    fixes, documentation, other) with at least 2 commits.
  - Stories: one per feature/, feat/ or develop branch, its name turned
    into title-cased words.
  - Tasks: one per significant commit ("add", "implement", "fix",
    "refactor", ... or a long message), or one daily summary when a day
    has several. Typo fixes, formatting, lint and WIP commits are
    ignored. At most 20.
  Everything from history is completed.

ROADMAP
  Reads one markdown file. See 'taigagen docs roadmap'.

CODE REVIEW
  Walks the project tree (dependency, hidden and backup directories
  excluded) and looks for:
  - source files with no matching test file, and no test directory at all
  - files without doc comments (JSDoc, PHPDoc, docstrings)
  - hardcoded credentials, SQL built from request input, eval usage
  - functions longer than 50 lines
  At most 15 stories and 20 tasks, all new.
`

const topicRoadmap = `Roadmap Format
==============

Fenced code blocks are never parsed as structure.

PHASES (epics)
  Headings of level 2 or deeper containing "Phase N":

    ## ✅ Phase 1: Foundation - Core setup
    **Goal:** Ship the skeleton
    **Timeline:** Q1
    **Key Features:**
    - User login
    - Database schema

  ✅ in the heading marks the phase completed, 🚧 in progress.

FEATURES (stories)
  Level-4 headings that read like work ("implement", "add", "build",
  "system", "feature", ...). Up to 15; bullets become the
  implementation notes and the first code block the technical details.

ACTION ITEMS (tasks)
  Up to 20, collected in this order:
    - [ ] checkbox items ([x] means completed)
    - TODO:, FIXME:, ACTION:, NEXT: bullets
    1. **Numbered bold item**: with a description
`

const topicConfig = `Configuration Reference
=======================

A run config is YAML (taigagen.yaml) or TOML (taigagen.toml, chosen by
extension). Unknown keys are errors.

  project-dir: .              # required; relative to the config file
  tracker:
    project: my-app           # id or slug of an existing project
    create:                   # or create one (not both)
      name: My App
      description: Imported by taigagen
      private: false
  sources:                    # at least one
    git: true
    roadmap: ROADMAP.md       # path, "auto", or "" to skip
    code-review: true
  delays:                     # 0 or missing means the default
    epic: 500ms
    story: 400ms
    task: 300ms
    generator: 1s

CREDENTIALS
  --api-url, --username, --password or TAIGA_API_URL, TAIGA_USERNAME,
  TAIGA_PASSWORD. --env-file (default .env) is loaded first and never
  overrides variables that are already set.

DEBUG LOG
  --debug-log FILE writes a JSON log of every request and submission,
  tagged with the run id.
`

const topicTracker = `Taiga Submission
================

Every item, whatever its kind, is created as a user story. The kind
shows in the console and in the report.

STATUS
  Completed items get the project's "done" status (named like done or
  closed); everything else gets the "new" status. Projects without
  either fall back to Taiga's default.

ASSIGNEE
  In a one-member project every item goes to that member. Otherwise
  items carrying a commit author go to the member whose username, full
  name or email matches, and the rest stay unassigned.

PACING
  500ms after an epic, 400ms after a story, 300ms after a task and 1s
  between sources. Ctrl-C stops between items.

FAILURES
  A rejected item is reported and skipped. Titles are cleaned of emoji
  and markdown first; a title that ends up empty is not sent.

REPORTS
  --report FILE writes every created and failed item as JSON, and
  'taigagen doctor FILE' groups the failures by cause with a fix for
  each. Re-running creates duplicates: taigagen does not look for
  existing items.
`

const topicBridge = `Tool Bridge
===========

'taigagen bridge' serves these tools over stdin/stdout for assistants:

  authenticate      username, password (optional; default credentials)
  listProjects
  getProject        projectIdentifier
  createProject     name, description, private
  listUserStories   projectIdentifier
  createUserStory   projectIdentifier, subject, description, status, tags
  listTasks         projectIdentifier, userStoryIdentifier (optional)
  createTask        projectIdentifier, userStoryIdentifier, subject,
                    description, status, tags
  listStatuses      projectIdentifier, kind (userstory or task)

projectIdentifier is an id or slug. userStoryIdentifier is an id or a
"#ref". Status names match case-insensitively; an unknown name leaves
the Taiga default.
`
