package gemini

// extractionPrompt asks the model for the main ingredients of a menu photo
// with market price estimates. The JSON shape is pinned down in the prompt
// itself; parseMaterials decodes exactly this contract.
const extractionPrompt = `この飲食店メニュー写真から、使われている主要な食材を推測してください。
出力は必ず以下のJSON形式のみで答えてください。
{"materials": [{"name": "材料名", "market_price": 500, "qty": 1, "unit": "kg"}]}`
