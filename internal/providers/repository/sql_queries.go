package repository

const (
	createProviderQuery = `INSERT INTO providers (id, name, provider_type, enabled, credential, manifest)
					VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, name, provider_type, enabled, credential, manifest, created_at, updated_at`
	getProviderByIDQuery = `SELECT id, name, provider_type, enabled, credential, manifest, created_at, updated_at FROM providers
					WHERE id = $1`
	getTotalProvidersQuery = `SELECT COUNT(id) FROM providers WHERE ($1 = '' OR provider_type = $1)`
	listProvidersQuery     = `SELECT id, name, provider_type, enabled, credential, manifest, created_at, updated_at FROM providers
					WHERE ($1 = '' OR provider_type = $1) ORDER BY created_at OFFSET $2 LIMIT $3`
	replaceProviderQuery = `UPDATE providers
					SET name = $2, provider_type = $3, enabled = $4, credential = $5, manifest = $6, updated_at = now()
					WHERE id = $1 RETURNING id, name, provider_type, enabled, credential, manifest, created_at, updated_at`
	deleteProviderQuery = `DELETE FROM providers WHERE id = $1`

	upsertBindingQuery = `INSERT INTO stage_bindings (stage, content_language, provider_id, endpoint)
					VALUES ($1, $2, $3, $4)
					ON CONFLICT (stage, content_language) DO UPDATE SET provider_id = $3, endpoint = $4`
	getBindingQuery   = `SELECT stage, content_language, provider_id, endpoint FROM stage_bindings WHERE stage = $1 AND content_language = $2`
	listBindingsQuery = `SELECT stage, content_language, provider_id, endpoint FROM stage_bindings ORDER BY stage, content_language`
)
