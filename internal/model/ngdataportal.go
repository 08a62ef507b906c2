package model

// National Grid ESO Data Portal（CKAN datastore API）的wire结构

// CKANSearchResponse datastore_search / datastore_search_sql响应
type CKANSearchResponse struct {
	Success bool       `json:"success"`
	Result  CKANResult `json:"result"`
}

// CKANResult 记录集合（字段名由数据流决定，保持原样键）
type CKANResult struct {
	Records []map[string]interface{} `json:"records"`
	Total   int                      `json:"total"`
}
