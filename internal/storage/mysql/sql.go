package mysql

const insertSurveyPrefix = "INSERT INTO surveys\n  (id, likelihood_to_recommend, comments, email, created_at)\nVALUES "

const (
	surveyValues  = "(?, ?, ?, ?, ?)"
	surveyColumns = 5
)

// 1000 rows use 5000 placeholders; MySQL allows 65535 per statement.
const insertChunkSize = 1000

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const allRatingsSQL = `SELECT likelihood_to_recommend FROM surveys`

// AVG over an empty table is NULL; the repo maps that to 0.
const averageRatingSQL = `SELECT AVG(likelihood_to_recommend) FROM surveys`

const distributionSQL = `
SELECT likelihood_to_recommend, COUNT(*)
FROM surveys
GROUP BY likelihood_to_recommend
`

const resetSQL = `DELETE FROM surveys`
