package fixture

// skeleton is the commented template written by `cctest init`. It must
// parse once the placeholder values are filled in.
const skeleton = `# CommCare form test
# Run with: cctest run <this-file.yaml>

name: "My Test"

# Project the app and mobile worker belong to
domain: my-project
app_id: your-app-id-here
username: mobile-worker-username

# Seconds to wait for the form engine before the run is reported as an error
timeout: 120

# Menu and entity-list selections (1-indexed) from the app's root menu to the form
navigation:
  - "1"    # first menu item
  # - "2"  # sub-menu or case, etc.

# Answers keyed by question path, in the order they are entered.
#
#   - any value for text, integer, date and similar questions
#   - a number for single-select questions (1-indexed option)
#   - a list of numbers for multi-select questions, e.g. [1, 3]
#   - SKIP        leave an optional question unanswered (no quotes)
#   - NEW_REPEAT  add a repeat group instance (no quotes); answers under the
#                 repeat path go to the newest instance
#
# A path may appear more than once, e.g. one NEW_REPEAT per repeat instance.
answers:
  # /data/name: "Jane Doe"
  # /data/age: "32"
  # /data/gender: "1"
  # /data/symptoms: [1, 3]
  # /data/household: NEW_REPEAT
  # /data/household/member_name: "first member"
  # /data/household: NEW_REPEAT
  # /data/household/member_name: "second member"
  # /data/optional_field: SKIP
`

// Skeleton returns the template fixture.
func Skeleton() string {
	return skeleton
}
