package gateway

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
)

// buildAppraisalPrompt describes the comparison task. The first image sent
// after it is the master reference, the second the practice work.
func buildAppraisalPrompt() string {
	return `你是一位精通中國書法史的數位書法鑑定師，專精歐陽詢《九成宮醴泉銘》。你能辨識歐體「方勁、中宮緊結、左收右放、結體險勁」的特徵。

第一張圖片是名家原帖，第二張圖片是使用者的臨摹作品。請比對兩者並完成鑑定。

分析要求：
1. 歐體鑑定：特別關注「險勁」之神韻、橫畫之斜度（左低右高）與點畫精確度。
2. 量化指標：
   - structure、stroke、gravity、whiteSpace、appearance、spirit、ssim、pixelOverlap 一律回傳 0-100 的整數百分比。
   - ssim 為結構相似度，pixelOverlap 為像素重疊率。
   - gravityOffset 為重心偏差，單位為像素 (px)。
3. 視覺標註：
   - greenAreas：高度吻合原帖法度的區域。
   - redAreas：重心偏差、筆劃長度或粗細不符的區域。
4. metadata：workName 為作品名稱，style 為書體風格，date 為鑑定日期 (YYYY-MM-DD)，appraisalId 為鑑定編號。
5. markdownReport：生成一份結構嚴謹、標題排版美觀的《書法數位鑑定報告書》，包含以 Unicode 符號繪製的 5x5 矩陣雷達圖。
6. cvAdvice：列出以電腦視覺重現上述指標的步驟 (steps) 與一段 Python 範例程式碼 (codeSnippet)。

所有欄位皆為必填。請只回傳符合指定結構的 JSON。`
}

// buildStickerPrompt asks for sticker design ideas based on a finished appraisal
func buildStickerPrompt(result *models.AppraisalResult) string {
	style := result.Metadata.Style
	if strings.TrimSpace(style) == "" {
		style = "歐體 (歐陽詢)"
	}

	return fmt.Sprintf(`基於以下書法鑑定結果：
作品：%s
風格：%s
結論：%s

請：
1. 推薦 3 個符合此風格「險勁、莊重」性格的 LINE 貼圖文字。
2. 設計 5 個 LINE 貼圖模板。
3. 針對此風格的特徵（如方折、中宮緊結），給予插圖建議。

每個建議獨立成行。`,
		result.Metadata.WorkName,
		style,
		result.Feedback.Conclusion,
	)
}
